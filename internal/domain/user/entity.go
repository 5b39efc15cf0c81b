package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadyExists = errors.New("username or email already taken")

type (
	UUID = uuid.UUID
	User struct {
		UUID         UUID
		Username     string
		Email        string
		PasswordHash string

		CreatedAt time.Time
	}
	Users []*User
)

// NormalizeUsername trims and lower-cases, usernames are case-insensitive.
func NormalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
