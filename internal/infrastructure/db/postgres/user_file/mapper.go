package user_file

import (
	domain "filedrive/internal/domain/user_file"
)

func fromDBModel(model *UserFile) *domain.UserFile {
	var uf = &domain.UserFile{
		UUID:    model.UUID,
		OwnerID: model.OwnerUUID,

		StorageKey:   model.StorageKey,
		OriginalName: model.OriginalName,
		MimeType:     model.MimeType,
		SizeBytes:    uint64(max(model.SizeBytes, 0)),

		CreatedAt: model.CreatedAt,
	}

	return uf
}

func fromDBModels(models *UserFiles) domain.UserFiles {
	ufs := make(domain.UserFiles, len(*models))
	for idx, u := range *models {
		ufs[idx] = fromDBModel(u)
	}

	return ufs
}
