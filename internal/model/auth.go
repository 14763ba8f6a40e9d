package model

import "strings"

type LoginRequest struct {
	Username string `form:"username" json:"username" label:"Username" validate:"required"`
	Password string `form:"password" json:"password" label:"Password" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed, used for validation.
func (r LoginRequest) Trimmed() LoginRequest {
	return LoginRequest{
		Username: strings.TrimSpace(r.Username),
		Password: strings.TrimSpace(r.Password),
	}
}

type SignupRequest struct {
	Name     string `form:"name" json:"name" label:"Name" validate:"required"`
	Username string `form:"username" json:"username" label:"Username" validate:"required"`
	Email    string `form:"email" json:"email" label:"Email" validate:"required,email"`
	Password string `form:"password" json:"password" label:"Password" validate:"required,min=6"`
}

// VerifyResult is the backend's answer to a token check.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Decoded struct {
		Username string `json:"username"`
	} `json:"decoded"`
}

// InvalidToken is the canonical negative verification result.
func InvalidToken() VerifyResult {
	return VerifyResult{Message: "Token is not valid"}
}
