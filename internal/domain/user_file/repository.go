package user_file

import (
	"context"

	"github.com/google/uuid"

	"filedrive/internal/domain/user"
)

// Repository is the file registry. It never checks ownership, callers do.
type Repository interface {
	FetchUserFiles(ctx context.Context, ownerID user.UUID) (UserFiles, error)
	FetchUserFile(ctx context.Context, id uuid.UUID) (*UserFile, error)
	FetchUserFileByKey(ctx context.Context, storageKey string) (*UserFile, error)
	CreateUserFile(ctx context.Context, req *UserFile) (*UserFile, error)
	// DeleteUserFile reports whether a row was removed. A missing row is not an error.
	DeleteUserFile(ctx context.Context, id uuid.UUID) (bool, error)
}
