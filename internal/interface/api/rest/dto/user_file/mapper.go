package user_file

import (
	"filedrive/internal/domain/user_file"
)

// downloadPath is the by-id download route, "/files/<uuid>/download".
func downloadPath(uDomain user_file.UserFile) string {
	return "/files/" + uDomain.UUID.String() + "/download"
}

func ToResponseUserFile(uDomain user_file.UserFile) UserFile {
	var uf = UserFile{
		UUID:        uDomain.UUID,
		FileName:    uDomain.OriginalName,
		MimeType:    uDomain.MimeType,
		SizeBytes:   uDomain.SizeBytes,
		StorageKey:  uDomain.StorageKey,
		DownloadURL: downloadPath(uDomain),
		CreatedAt:   uDomain.CreatedAt,
	}

	return uf
}

func ToResponseUserFiles(ufDomain user_file.UserFiles) UserFiles {
	ufs := make(UserFiles, len(ufDomain))
	for idx, u := range ufDomain {
		ufs[idx] = ToResponseUserFile(*u)
	}

	return ufs
}
