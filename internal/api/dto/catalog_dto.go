package dto

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// ProjectRequest is the create/update payload for catalog projects.
type ProjectRequest struct {
	Name        string               `json:"name"`
	City        string               `json:"city"`
	Location    string               `json:"location"`
	Description string               `json:"description"`
	PriceMin    int64                `json:"price_min"`
	PriceMax    int64                `json:"price_max"`
	Status      domain.ProjectStatus `json:"status"`
	Active      *bool                `json:"active"`
}

// ProjectResponse is the external project representation.
type ProjectResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	City        string               `json:"city"`
	Location    string               `json:"location,omitempty"`
	Description string               `json:"description,omitempty"`
	PriceMin    int64                `json:"price_min"`
	PriceMax    int64                `json:"price_max"`
	Status      domain.ProjectStatus `json:"status"`
	Active      bool                 `json:"active"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// CreateEnquiryRequest payload.
type CreateEnquiryRequest struct {
	ProjectID string `json:"project_id"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

// UpdateEnquiryRequest payload for back-office follow-up.
type UpdateEnquiryRequest struct {
	Status  domain.EnquiryStatus `json:"status"`
	AgentID *string              `json:"agent_id"`
}

// EnquiryResponse is the external enquiry representation.
type EnquiryResponse struct {
	ID         string               `json:"id"`
	CustomerID string               `json:"customer_id"`
	ProjectID  string               `json:"project_id"`
	Message    string               `json:"message"`
	Source     string               `json:"source,omitempty"`
	Status     domain.EnquiryStatus `json:"status"`
	AgentID    *string              `json:"agent_id,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}
