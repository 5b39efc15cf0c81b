package user_file

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"filedrive/internal/domain/user"
	"filedrive/internal/domain/user_file"
	"filedrive/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user_file.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchUserFiles(ctx context.Context, ownerID user.UUID) (user_file.UserFiles, error) {
	rows, err := r.db.Query(ctx, SelectUserFilesByOwner, ownerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ufs UserFiles
	for rows.Next() {
		uf := new(UserFile)

		if err = rows.Scan(
			&uf.ID,
			&uf.UUID,
			&uf.OwnerUUID,

			&uf.StorageKey,
			&uf.OriginalName,
			&uf.MimeType,
			&uf.SizeBytes,

			&uf.CreatedAt,
		); err != nil {
			return nil, err
		}

		ufs = append(ufs, uf)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&ufs), nil
}

func (r *Repository) FetchUserFile(ctx context.Context, id uuid.UUID) (*user_file.UserFile, error) {
	return r.fetchOne(ctx, SelectUserFileByUUID, id.String())
}

func (r *Repository) FetchUserFileByKey(ctx context.Context, storageKey string) (*user_file.UserFile, error) {
	return r.fetchOne(ctx, SelectUserFileByStorageKey, storageKey)
}

func (r *Repository) CreateUserFile(ctx context.Context, req *user_file.UserFile) (*user_file.UserFile, error) {
	if req.SizeBytes > math.MaxInt64 {
		return nil, errors.New("file size overflows bigint")
	}

	uf := new(UserFile)

	err := r.db.QueryRow(
		ctx,
		InsertUserFile,
		req.OwnerID.String(), req.StorageKey, req.OriginalName, req.MimeType, int64(req.SizeBytes),
	).Scan(
		&uf.ID,
		&uf.UUID,
		&uf.OwnerUUID,

		&uf.StorageKey,
		&uf.OriginalName,
		&uf.MimeType,
		&uf.SizeBytes,

		&uf.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return fromDBModel(uf), nil
}

func (r *Repository) DeleteUserFile(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, DeleteUserFileByUUID, id.String())
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *Repository) fetchOne(ctx context.Context, query string, arg any) (*user_file.UserFile, error) {
	uf := new(UserFile)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&uf.ID,
		&uf.UUID,
		&uf.OwnerUUID,

		&uf.StorageKey,
		&uf.OriginalName,
		&uf.MimeType,
		&uf.SizeBytes,

		&uf.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(uf), nil
}
