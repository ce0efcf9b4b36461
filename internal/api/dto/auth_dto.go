package dto

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// RegisterCustomerRequest payload.
type RegisterCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterAgentRequest payload.
type RegisterAgentRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     domain.AgentRole `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	SubjectID string             `json:"subject_id"`
	Subject   domain.SubjectType `json:"subject"`
	Role      *domain.AgentRole  `json:"role,omitempty"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email   string             `json:"email"`
	Subject domain.SubjectType `json:"subject"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CustomerResponse is the external customer representation.
type CustomerResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Phone     string                `json:"phone,omitempty"`
	Status    domain.CustomerStatus `json:"status"`
	Stage     domain.FunnelStage    `json:"stage"`
	CreatedAt time.Time             `json:"created_at"`
}

// AgentResponse is the external agent representation.
type AgentResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.AgentRole `json:"role"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

// UpdateCustomerRequest payload.
type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// AdvanceStageRequest payload.
type AdvanceStageRequest struct {
	Stage domain.FunnelStage `json:"stage"`
}
