package user_file

const (
	SelectUserFilesByOwner = `
		SELECT id, uuid, owner_uuid, storage_key, original_name, mime_type, size_bytes, created_at
		FROM user_files
		WHERE owner_uuid = $1
		ORDER BY created_at DESC
	`
	SelectUserFileByUUID = `
		SELECT id, uuid, owner_uuid, storage_key, original_name, mime_type, size_bytes, created_at
		FROM user_files
		WHERE uuid = $1
	`
	SelectUserFileByStorageKey = `
		SELECT id, uuid, owner_uuid, storage_key, original_name, mime_type, size_bytes, created_at
		FROM user_files
		WHERE storage_key = $1
	`
	InsertUserFile = `
		INSERT INTO user_files (owner_uuid, storage_key, original_name, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING
		  id, uuid, owner_uuid, storage_key, original_name, mime_type, size_bytes, created_at
	`
	DeleteUserFileByUUID = `
		DELETE FROM user_files
		WHERE uuid = $1
	`
)
