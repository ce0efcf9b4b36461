package domain

import "time"

// CustomerStatus represents account states for an end-customer.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)

// FunnelStage tracks how far a customer has progressed toward a
// purchase. Stages only move forward, through an explicit transition.
type FunnelStage string

const (
	FunnelStageLead        FunnelStage = "LEAD"
	FunnelStageEnquiry     FunnelStage = "ENQUIRY"
	FunnelStageNegotiation FunnelStage = "NEGOTIATION"
	FunnelStageBuyer       FunnelStage = "BUYER"
)

var funnelOrder = map[FunnelStage]int{
	FunnelStageLead:        0,
	FunnelStageEnquiry:     1,
	FunnelStageNegotiation: 2,
	FunnelStageBuyer:       3,
}

// FunnelRank returns the ordinal of a stage, -1 for unknown stages.
func FunnelRank(stage FunnelStage) int {
	rank, ok := funnelOrder[stage]
	if !ok {
		return -1
	}
	return rank
}

// Customer is the domain model for end-customers.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Status       CustomerStatus
	Stage        FunnelStage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
