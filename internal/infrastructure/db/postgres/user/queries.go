package user

const (
	SelectUserByID = `
		SELECT id, uuid, username, email, password_hash, created_at
		FROM users
		WHERE uuid = $1
	`
	SelectUserByUsername = `
		SELECT id, uuid, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	SelectUserByEmail = `
		SELECT id, uuid, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	InsertUser = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING
		  id, uuid, username, email, password_hash, created_at
	`
)
