package user_file

import (
	"time"

	"github.com/google/uuid"
)

type (
	UserFile struct {
		ID        uint64
		UUID      uuid.UUID
		OwnerUUID uuid.UUID

		StorageKey   string
		OriginalName string
		MimeType     string
		SizeBytes    int64

		CreatedAt time.Time
	}
	UserFiles []*UserFile
)
