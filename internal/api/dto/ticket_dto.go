package dto

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   *string               `json:"project_id"`
	Type        domain.TicketType     `json:"type"`
	Category    string                `json:"category"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text        string   `json:"text"`
	Internal    bool     `json:"internal"`
	Attachments []string `json:"attachments"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Resolution string `json:"resolution"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	Reason string `json:"reason"`
}

// RateTicketRequest payload.
type RateTicketRequest struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	ProjectID    *string               `json:"project_id"`
	Type         domain.TicketType     `json:"type"`
	Category     string                `json:"category,omitempty"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	SLABreached  bool                  `json:"sla_breached"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID            string                  `json:"id"`
	TicketNumber  string                  `json:"ticket_number"`
	CustomerID    string                  `json:"customer_id"`
	ProjectID     *string                 `json:"project_id"`
	Type          domain.TicketType       `json:"type"`
	Category      string                  `json:"category,omitempty"`
	Subject       string                  `json:"subject"`
	Description   string                  `json:"description"`
	Status        domain.TicketStatus     `json:"status"`
	Priority      domain.TicketPriority   `json:"priority"`
	AssigneeID    *string                 `json:"assignee_id,omitempty"`
	Comments      []TicketCommentResponse `json:"comments"`
	Resolution    *ResolutionResponse     `json:"resolution,omitempty"`
	Rating        *RatingResponse         `json:"rating,omitempty"`
	SLA           SLAResponse             `json:"sla"`
	ReopenedCount int                     `json:"reopened_count"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	ClosedAt      *time.Time              `json:"closed_at,omitempty"`
}

// TicketCommentResponse represents a thread entry.
type TicketCommentResponse struct {
	Text        string                   `json:"text"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    string                   `json:"author_id"`
	Internal    bool                     `json:"internal"`
	Attachments []string                 `json:"attachments,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ResolutionResponse conveys resolution details.
type ResolutionResponse struct {
	Text         string    `json:"text"`
	ResolvedByID string    `json:"resolved_by_id"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// RatingResponse conveys customer feedback.
type RatingResponse struct {
	Score    int       `json:"score"`
	Feedback string    `json:"feedback,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

// SLAResponse conveys deadline tracking.
type SLAResponse struct {
	ResponseDeadline    time.Time  `json:"response_deadline"`
	ResolutionDeadline  time.Time  `json:"resolution_deadline"`
	FirstResponseAt     *time.Time `json:"first_response_at,omitempty"`
	ResponseTimeHours   *float64   `json:"response_time_hours,omitempty"`
	ResolutionTimeHours *float64   `json:"resolution_time_hours,omitempty"`
	Breached            bool       `json:"breached"`
}
