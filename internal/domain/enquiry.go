package domain

import "time"

// EnquiryStatus tracks sales follow-up on an enquiry.
type EnquiryStatus string

const (
	EnquiryStatusNew       EnquiryStatus = "NEW"
	EnquiryStatusContacted EnquiryStatus = "CONTACTED"
	EnquiryStatusSiteVisit EnquiryStatus = "SITE_VISIT"
	EnquiryStatusClosed    EnquiryStatus = "CLOSED"
)

// Enquiry is a customer's expression of interest in a project.
type Enquiry struct {
	ID         string
	CustomerID string
	ProjectID  string
	Message    string
	Source     string
	Status     EnquiryStatus
	AgentID    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
