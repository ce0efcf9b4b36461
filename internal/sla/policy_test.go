package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtydesk/realty-service/internal/domain"
)

func TestNewRecordDeadlines(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		priority        domain.TicketPriority
		responseHours   int
		resolutionHours int
	}{
		{domain.TicketPriorityUrgent, 2, 24},
		{domain.TicketPriorityHigh, 4, 48},
		{domain.TicketPriorityMedium, 24, 72},
		{domain.TicketPriorityLow, 48, 120},
	}

	for _, tc := range cases {
		t.Run(string(tc.priority), func(t *testing.T) {
			record := NewRecord(tc.priority, createdAt)
			assert.Equal(t, createdAt.Add(time.Duration(tc.responseHours)*time.Hour), record.ResponseDeadline)
			assert.Equal(t, createdAt.Add(time.Duration(tc.resolutionHours)*time.Hour), record.ResolutionDeadline)
			assert.False(t, record.Breached)
		})
	}
}

func TestDeadlinesUnknownPriorityFallsBackToMedium(t *testing.T) {
	target := Deadlines(domain.TicketPriority("WHENEVER"))
	require.Equal(t, 24, target.ResponseHours)
	require.Equal(t, 72, target.ResolutionHours)
}

func TestEvaluate(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	newTicket := func() *domain.Ticket {
		return &domain.Ticket{
			Status:    domain.TicketStatusOpen,
			Priority:  domain.TicketPriorityUrgent,
			SLA:       NewRecord(domain.TicketPriorityUrgent, createdAt),
			CreatedAt: createdAt,
		}
	}

	t.Run("no breach inside both windows", func(t *testing.T) {
		ticket := newTicket()
		assert.False(t, Evaluate(ticket, createdAt.Add(time.Hour)))
	})

	t.Run("response deadline passed without a response", func(t *testing.T) {
		ticket := newTicket()
		assert.True(t, Evaluate(ticket, createdAt.Add(3*time.Hour)))
	})

	t.Run("timely response keeps ticket clean", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		assert.False(t, Evaluate(ticket, createdAt.Add(3*time.Hour)))
	})

	t.Run("late response stays breached after responding", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(5 * time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		assert.True(t, Evaluate(ticket, createdAt.Add(6*time.Hour)))
	})

	t.Run("resolution deadline passed while still open", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		assert.True(t, Evaluate(ticket, createdAt.Add(25*time.Hour)))
	})

	t.Run("timely resolution never breaches afterwards", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		ticket.Status = domain.TicketStatusResolved
		ticket.Resolution = &domain.Resolution{ResolvedAt: createdAt.Add(10 * time.Hour)}
		assert.False(t, Evaluate(ticket, createdAt.Add(100*time.Hour)))
	})

	t.Run("late resolution stays breached", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		ticket.Status = domain.TicketStatusResolved
		ticket.Resolution = &domain.Resolution{ResolvedAt: createdAt.Add(30 * time.Hour)}
		assert.True(t, Evaluate(ticket, createdAt.Add(31*time.Hour)))
	})

	t.Run("late closure without resolution record stays breached", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		closedAt := createdAt.Add(30 * time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		ticket.Status = domain.TicketStatusClosed
		ticket.ClosedAt = &closedAt
		assert.True(t, Evaluate(ticket, createdAt.Add(31*time.Hour)))
	})

	t.Run("timely closure without resolution record stays clean", func(t *testing.T) {
		ticket := newTicket()
		respondedAt := createdAt.Add(time.Hour)
		closedAt := createdAt.Add(10 * time.Hour)
		ticket.SLA.FirstResponseAt = &respondedAt
		ticket.Status = domain.TicketStatusClosed
		ticket.ClosedAt = &closedAt
		assert.False(t, Evaluate(ticket, createdAt.Add(100*time.Hour)))
	})
}
