package models

import "time"

// RoleFrontDesk is the only role the clinic uses today.
const RoleFrontDesk = "frontdesk"

// User is an authenticated front desk operator.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
