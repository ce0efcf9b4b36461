package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInReview        TicketStatus = "IN_REVIEW"
	TicketStatusPendingCustomer TicketStatus = "PENDING_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketType classifies what the ticket is about.
type TicketType string

const (
	TicketTypeComplaint    TicketType = "COMPLAINT"
	TicketTypeQuery        TicketType = "QUERY"
	TicketTypeMaintenance  TicketType = "MAINTENANCE"
	TicketTypePaymentIssue TicketType = "PAYMENT_ISSUE"
	TicketTypeFeedback     TicketType = "FEEDBACK"
	TicketTypeOther        TicketType = "OTHER"
)

// CommentAuthorType indicates who authored a ticket comment.
type CommentAuthorType string

const (
	CommentAuthorCustomer CommentAuthorType = "CUSTOMER"
	CommentAuthorAgent    CommentAuthorType = "AGENT"
	CommentAuthorSystem   CommentAuthorType = "SYSTEM"
)

// TicketComment is one entry in the ticket's conversation thread.
// Comments live inside the ticket document so every lifecycle
// transition stays a single-row write.
type TicketComment struct {
	Text        string            `json:"text"`
	AuthorType  CommentAuthorType `json:"author_type"`
	AuthorID    string            `json:"author_id"`
	Internal    bool              `json:"internal"`
	Attachments []string          `json:"attachments,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Resolution records how a ticket was resolved. Present only while
// the ticket is resolved or closed; cleared again on reopen.
type Resolution struct {
	Text         string    `json:"text"`
	ResolvedByID string    `json:"resolved_by_id"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// Rating is customer feedback, settable only after resolution or
// closure.
type Rating struct {
	Score    int       `json:"score"`
	Feedback string    `json:"feedback,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

// SLARecord holds the deadlines fixed at creation plus derived
// response/resolution timings. Deadlines are never recomputed.
type SLARecord struct {
	ResponseDeadline    time.Time  `json:"response_deadline"`
	ResolutionDeadline  time.Time  `json:"resolution_deadline"`
	FirstResponseAt     *time.Time `json:"first_response_at,omitempty"`
	ResponseTimeHours   *float64   `json:"response_time_hours,omitempty"`
	ResolutionTimeHours *float64   `json:"resolution_time_hours,omitempty"`
	Breached            bool       `json:"breached"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	TicketNumber  string
	CustomerID    string
	ProjectID     *string
	Type          TicketType
	Category      string
	Subject       string
	Description   string
	Priority      TicketPriority
	Status        TicketStatus
	AssigneeID    *string
	Comments      []TicketComment
	Resolution    *Resolution
	Rating        *Rating
	SLA           SLARecord
	ReopenedCount int
	ReopenedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}

// IsFinished reports whether the ticket reached a ratable state.
func (t *Ticket) IsFinished() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}
