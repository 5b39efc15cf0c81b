package ports

import (
	"context"

	"filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/jwt"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

type SessionTokens interface {
	Issue(userID, username, email string) (string, error)
	Verify(token string) (*jwt.Claims, error)
}

type Auth interface {
	Register(ctx context.Context, username, email, password string) (*user.User, error)
	// Login returns a signed session token for valid credentials.
	Login(ctx context.Context, username, password string) (string, *user.User, error)
}
