package user_file

import (
	"time"

	"github.com/google/uuid"

	"filedrive/internal/domain/user"
)

type (
	UserFile struct {
		UUID    uuid.UUID
		OwnerID user.UUID

		StorageKey   string
		OriginalName string
		MimeType     string
		SizeBytes    uint64

		CreatedAt time.Time
	}
	UserFiles []*UserFile
)

func (uf *UserFile) OwnedBy(id user.UUID) bool {
	return uf != nil && uf.OwnerID == id
}
