package events

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketReopened      EventType = "ticket_reopened"
	EventPaymentInitiated    EventType = "payment_initiated"
	EventPaymentSucceeded    EventType = "payment_succeeded"
	EventPaymentFailed       EventType = "payment_failed"
	EventRefundInitiated     EventType = "refund_initiated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	CustomerID *string            `json:"customer_id,omitempty"`
	AgentID    *string            `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Priority     domain.TicketPriority `json:"priority"`
	Type         domain.TicketType     `json:"ticket_type"`
	Subject      string                `json:"subject"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	Internal    bool                     `json:"internal"`
	BodyPreview string                   `json:"body_preview"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	ResolvedByID        string  `json:"resolved_by_id"`
	ResolutionTimeHours float64 `json:"resolution_time_hours"`
	Breached            bool    `json:"breached"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	Reason        string `json:"reason"`
	ReopenedCount int    `json:"reopened_count"`
}

// PaymentStatusPayload payload shared by payment transitions.
type PaymentStatusPayload struct {
	Status        domain.PaymentStatus `json:"status"`
	Amount        int64                `json:"amount"`
	Type          domain.PaymentType   `json:"payment_type"`
	ReceiptNumber *string              `json:"receipt_number,omitempty"`
	FailureReason *string              `json:"failure_reason,omitempty"`
}

// RefundInitiatedPayload payload.
type RefundInitiatedPayload struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}
