package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/domain/user"
	"filedrive/internal/infrastructure/password"
)

var (
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrFailedToGenerateToken = errors.New("failed to generate token")
)

type AuthService struct {
	userRepository user.Repository
	hasher         ports.PasswordHasher
	tokens         ports.SessionTokens
	logger         *zap.Logger
	mCounter       *prometheus.CounterVec
}

func NewAuthService(
	userRepository user.Repository,
	hasher ports.PasswordHasher,
	tokens ports.SessionTokens,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.Auth {
	return &AuthService{
		userRepository: userRepository,
		hasher:         hasher,
		tokens:         tokens,
		logger:         logger,
		mCounter:       mCounter,
	}
}

// Register stores a new user. Input must already be validated; duplicates
// come back as user.ErrAlreadyExists.
func (as *AuthService) Register(ctx context.Context, username, email, plain string) (*user.User, error) {
	hash, err := as.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := as.userRepository.CreateUser(ctx, user.User{
		Username:     user.NormalizeUsername(username),
		Email:        user.NormalizeEmail(email),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	as.inc("user_registered_total")

	return u, nil
}

// Login answers ErrInvalidCredentials for an unknown user and a wrong
// password alike.
func (as *AuthService) Login(ctx context.Context, username, plain string) (string, *user.User, error) {
	u, err := as.userRepository.FetchUserByUsername(ctx, user.NormalizeUsername(username))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		as.inc("login_failed_total")
		return "", nil, ErrInvalidCredentials
	}

	if err = as.hasher.Verify(u.PasswordHash, plain); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			as.logger.Warn("password verify error", zap.String("user_id", u.UUID.String()), zap.Error(err))
		}
		as.inc("login_failed_total")
		return "", nil, ErrInvalidCredentials
	}

	token, err := as.tokens.Issue(u.UUID.String(), u.Username, u.Email)
	if err != nil {
		as.logger.Error("issue session token", zap.Error(err))
		return "", nil, ErrFailedToGenerateToken
	}

	as.inc("login_succeeded_total")

	return token, u, nil
}

func (as *AuthService) inc(result string) {
	if as.mCounter != nil {
		as.mCounter.WithLabelValues(result).Inc()
	}
}
