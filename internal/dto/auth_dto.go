package dto

import "time"

// LoginRequest carries either a tenant passcode or account credentials.
type LoginRequest struct {
	Passcode string `json:"passcode" validate:"omitempty,passcode"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

type PhoneLoginRequest struct {
	Phone string `json:"phone" validate:"required,phone10"`
}

type StepUpRequest struct {
	Passcode string `json:"passcode" validate:"required,passcode"`
	Remember bool   `json:"remember"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	TenantID    string    `json:"tenant_id"`
	Subject     string    `json:"subject"`
	Name        string    `json:"name,omitempty"`
	Sections    []string  `json:"sections"`
}

type SessionResponse struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Subject      string    `json:"subject"`
	Sections     []string  `json:"sections"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	StepUp       bool      `json:"step_up"`
	IdleTimeout  int64     `json:"idle_timeout_seconds"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type ErrorResponse struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DB          string `json:"db"`
	Docstore    string `json:"docstore"`
	TenantCount int    `json:"tenant_count"`
}
