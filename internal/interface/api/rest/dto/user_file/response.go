package user_file

import (
	"time"

	"github.com/google/uuid"
)

type (
	UserFile struct {
		UUID        uuid.UUID `json:"uuid"`
		FileName    string    `json:"file_name"`
		MimeType    string    `json:"mime_type"`
		SizeBytes   uint64    `json:"size_bytes"`
		StorageKey  string    `json:"storage_key"`
		DownloadURL string    `json:"download_url"`
		CreatedAt   time.Time `json:"created_at"`
	}
	UserFiles    []UserFile
	HomeResponse struct {
		Username string    `json:"username"`
		Data     UserFiles `json:"data"`
	}
)
