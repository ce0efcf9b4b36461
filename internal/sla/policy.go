// Package sla maps ticket priority to response/resolution targets and
// evaluates breach lazily on each read or mutation.
package sla

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// Target holds the committed hours for a priority.
type Target struct {
	ResponseHours   int
	ResolutionHours int
}

var targets = map[domain.TicketPriority]Target{
	domain.TicketPriorityUrgent: {ResponseHours: 2, ResolutionHours: 24},
	domain.TicketPriorityHigh:   {ResponseHours: 4, ResolutionHours: 48},
	domain.TicketPriorityMedium: {ResponseHours: 24, ResolutionHours: 72},
	domain.TicketPriorityLow:    {ResponseHours: 48, ResolutionHours: 120},
}

// Deadlines returns the target hours for a priority. Unknown
// priorities fall back to the medium targets.
func Deadlines(priority domain.TicketPriority) Target {
	target, ok := targets[priority]
	if !ok {
		return targets[domain.TicketPriorityMedium]
	}
	return target
}

// NewRecord computes the SLA record at ticket creation. Deadlines are
// fixed here and never recomputed afterwards.
func NewRecord(priority domain.TicketPriority, createdAt time.Time) domain.SLARecord {
	target := Deadlines(priority)
	return domain.SLARecord{
		ResponseDeadline:   createdAt.Add(time.Duration(target.ResponseHours) * time.Hour),
		ResolutionDeadline: createdAt.Add(time.Duration(target.ResolutionHours) * time.Hour),
	}
}

// Evaluate reports whether the ticket breached either deadline. A
// missed deadline stays breached even after the milestone eventually
// happens: a late first response or a late resolution does not clear
// the flag.
func Evaluate(ticket *domain.Ticket, now time.Time) bool {
	record := ticket.SLA

	if record.FirstResponseAt == nil {
		if now.After(record.ResponseDeadline) {
			return true
		}
	} else if record.FirstResponseAt.After(record.ResponseDeadline) {
		return true
	}

	if ticket.IsFinished() {
		// Closing without a resolution record (straight from
		// pending_customer) still settles the resolution milestone.
		resolvedAt := ticket.ClosedAt
		if ticket.Resolution != nil {
			resolvedAt = &ticket.Resolution.ResolvedAt
		}
		if resolvedAt == nil {
			return now.After(record.ResolutionDeadline)
		}
		return resolvedAt.After(record.ResolutionDeadline)
	}
	return now.After(record.ResolutionDeadline)
}
