package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"filedrive/internal/domain/user"
	"filedrive/internal/domain/user_file"
)

type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UserFileService scopes every operation to ownerID.
type UserFileService interface {
	FindUserFiles(ctx context.Context, ownerID user.UUID) (user_file.UserFiles, error)
	Upload(ctx context.Context, ownerID user.UUID, in UploadInput) (*user_file.UserFile, error)
	DownloadURL(ctx context.Context, ownerID user.UUID, storageKey string) (string, error)
	DownloadURLByID(ctx context.Context, ownerID user.UUID, fileID uuid.UUID) (string, error)
	Delete(ctx context.Context, ownerID user.UUID, fileID uuid.UUID) error
}
