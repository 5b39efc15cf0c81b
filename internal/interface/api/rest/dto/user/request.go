package user

import (
	"strings"
)

type (
	// RegisterRequest binds from both urlencoded forms and JSON.
	RegisterRequest struct {
		Username string `form:"username" json:"username" validate:"required,min=3,max=64"`
		Email    string `form:"email" json:"email" validate:"required,min=13,max=254,email"`
		Password string `form:"password" json:"password" validate:"required,min=5,max=72,maxbytes=72"`
	}
	LoginRequest struct {
		Username string `form:"username" json:"username" validate:"required,max=64"`
		Password string `form:"password" json:"password" validate:"required,max=72,maxbytes=72"`
	}
)

// Normalize trims surrounding spaces. Passwords are left untouched.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}
