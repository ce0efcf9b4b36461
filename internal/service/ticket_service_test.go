package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/events"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

type ticketFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	agents     *fakeAgentRepo
	dispatcher *recordingDispatcher
	clock      *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	tickets := newFakeTicketRepo()
	tickets.now = clock.Now
	agents := newFakeAgentRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		AgentRepo:    agents,
		SequenceRepo: newFakeSequenceRepo(),
		Dispatcher:   dispatcher,
		Now:          clock.Now,
	})
	return &ticketFixture{service: svc, tickets: tickets, agents: agents, dispatcher: dispatcher, clock: clock}
}

func (f *ticketFixture) addAgent(t *testing.T, role domain.AgentRole) *domain.Agent {
	t.Helper()
	agent := &domain.Agent{Name: "Asha", Email: string(role) + "@example.com", Role: role, Active: true}
	require.NoError(t, f.agents.Create(context.Background(), agent))
	return agent
}

func (f *ticketFixture) createTicket(t *testing.T, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), "customer-1", TicketCreateInput{
		Subject:     "Water seepage in unit B-404",
		Description: "Seepage near the balcony wall after last week's rain.",
		Type:        domain.TicketTypeMaintenance,
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket(t *testing.T) {
	t.Run("assigns sequential numbers and SLA deadlines", func(t *testing.T) {
		f := newTicketFixture(t)

		first := f.createTicket(t, domain.TicketPriorityHigh)
		second := f.createTicket(t, domain.TicketPriorityHigh)

		assert.Equal(t, "TKT-202503-000001", first.TicketNumber)
		assert.Equal(t, "TKT-202503-000002", second.TicketNumber)
		assert.Equal(t, domain.TicketStatusOpen, first.Status)
		assert.Equal(t, f.clock.now.Add(4*time.Hour), first.SLA.ResponseDeadline)
		assert.Equal(t, f.clock.now.Add(48*time.Hour), first.SLA.ResolutionDeadline)
		assert.False(t, first.SLA.Breached)

		created := f.dispatcher.byType(events.EventTicketCreated)
		assert.Len(t, created, 2)
	})

	t.Run("defaults type and priority", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket, err := f.service.CreateTicket(context.Background(), "customer-1", TicketCreateInput{
			Subject:     "General question",
			Description: "When is the possession date?",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TicketTypeQuery, ticket.Type)
		assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	})

	t.Run("rejects blank subject", func(t *testing.T) {
		f := newTicketFixture(t)
		_, err := f.service.CreateTicket(context.Background(), "customer-1", TicketCreateInput{
			Subject:     "   ",
			Description: "something",
		})
		assertDomainCode(t, err, "VALIDATION_FAILED")
	})
}

func TestAddComment(t *testing.T) {
	t.Run("first agent comment stamps the response milestone", func(t *testing.T) {
		f := newTicketFixture(t)
		agent := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		f.clock.Advance(90 * time.Minute)
		updated, err := f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
			Text: "Our maintenance team will visit tomorrow morning.",
		})
		require.NoError(t, err)

		require.NotNil(t, updated.SLA.FirstResponseAt)
		require.NotNil(t, updated.SLA.ResponseTimeHours)
		assert.InDelta(t, 1.5, *updated.SLA.ResponseTimeHours, 0.001)
		assert.False(t, updated.SLA.Breached)

		// A later agent comment must not move the milestone.
		f.clock.Advance(3 * time.Hour)
		updated, err = f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
			Text: "Visit confirmed for 10am.",
		})
		require.NoError(t, err)
		assert.InDelta(t, 1.5, *updated.SLA.ResponseTimeHours, 0.001)
	})

	t.Run("customer comment stamps the response milestone too", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		f.clock.Advance(time.Hour)
		updated, err := f.service.AddComment(context.Background(), domain.SubjectTypeCustomer, "customer-1", ticket.ID, CommentInput{
			Text: "Forgot to mention: the leak is worst at night.",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.SLA.FirstResponseAt)
		require.NotNil(t, updated.SLA.ResponseTimeHours)
		assert.InDelta(t, 1.0, *updated.SLA.ResponseTimeHours, 0.001)
		assert.False(t, updated.SLA.Breached)
	})

	t.Run("internal agent comment still counts as first response", func(t *testing.T) {
		f := newTicketFixture(t)
		agent := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		updated, err := f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
			Text:     "Known issue in block B, plumber already booked.",
			Internal: true,
		})
		require.NoError(t, err)
		assert.NotNil(t, updated.SLA.FirstResponseAt)
	})

	t.Run("customer cannot post internal comments", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.createTicket(t, domain.TicketPriorityLow)

		_, err := f.service.AddComment(context.Background(), domain.SubjectTypeCustomer, "customer-1", ticket.ID, CommentInput{
			Text:     "secret note",
			Internal: true,
		})
		assertDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("non-owner customer is rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.createTicket(t, domain.TicketPriorityLow)

		_, err := f.service.AddComment(context.Background(), domain.SubjectTypeCustomer, "customer-2", ticket.ID, CommentInput{
			Text: "I want in on this thread",
		})
		assertDomainCode(t, err, "FORBIDDEN")
	})
}

func TestAssignToAgent(t *testing.T) {
	t.Run("admin assignment forces in_review", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		assignee := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityMedium)

		updated, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.AssigneeID)
		assert.Equal(t, assignee.ID, *updated.AssigneeID)
		assert.Equal(t, domain.TicketStatusInReview, updated.Status)

		assert.Len(t, f.dispatcher.byType(events.EventTicketAssigned), 1)
		assert.Len(t, f.dispatcher.byType(events.EventTicketStatusChanged), 1)
	})

	t.Run("plain agent cannot assign", func(t *testing.T) {
		f := newTicketFixture(t)
		agent := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityMedium)

		_, err := f.service.AssignToAgent(context.Background(), agent, ticket.ID, agent.ID)
		assertDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("inactive assignee is rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		inactive := &domain.Agent{Name: "Gone", Email: "gone@example.com", Role: domain.AgentRoleAgent, Active: false}
		require.NoError(t, f.agents.Create(context.Background(), inactive))
		ticket := f.createTicket(t, domain.TicketPriorityMedium)

		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, inactive.ID)
		assertDomainCode(t, err, "CONFLICT")
	})
}

func TestUpdateStatus(t *testing.T) {
	f := newTicketFixture(t)
	admin := f.addAgent(t, domain.AgentRoleAdmin)
	assignee := f.addAgent(t, domain.AgentRoleAgent)
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	t.Run("open cannot jump straight to resolved", func(t *testing.T) {
		_, err := f.service.UpdateStatus(context.Background(), admin, ticket.ID, domain.TicketStatusResolved, "")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("walks the allowed chain", func(t *testing.T) {
		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)

		updated, err := f.service.UpdateStatus(context.Background(), assignee, ticket.ID, domain.TicketStatusPendingCustomer, "need photos")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusPendingCustomer, updated.Status)

		updated, err = f.service.UpdateStatus(context.Background(), assignee, ticket.ID, domain.TicketStatusInReview, "photos received")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInReview, updated.Status)
	})
}

func TestResolveAndRating(t *testing.T) {
	t.Run("resolve records resolution time", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		assignee := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityHigh)

		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)
		resolved, err := f.service.Resolve(context.Background(), assignee, ticket.ID, "Cracks sealed and repainted.")
		require.NoError(t, err)

		assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
		require.NotNil(t, resolved.Resolution)
		assert.Equal(t, assignee.ID, resolved.Resolution.ResolvedByID)
		require.NotNil(t, resolved.SLA.ResolutionTimeHours)
		assert.InDelta(t, 2.0, *resolved.SLA.ResolutionTimeHours, 0.001)
		assert.False(t, resolved.SLA.Breached)
	})

	t.Run("cannot resolve twice", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		assignee := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityHigh)

		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)
		_, err = f.service.Resolve(context.Background(), assignee, ticket.ID, "done")
		require.NoError(t, err)
		_, err = f.service.Resolve(context.Background(), assignee, ticket.ID, "done again")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("rating gated on resolution", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		assignee := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityMedium)

		_, err := f.service.AddRating(context.Background(), "customer-1", ticket.ID, 5, "great")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")

		_, err = f.service.AddRating(context.Background(), "customer-1", ticket.ID, 9, "")
		assertDomainCode(t, err, "VALIDATION_FAILED")

		_, err = f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)
		_, err = f.service.Resolve(context.Background(), assignee, ticket.ID, "done")
		require.NoError(t, err)

		rated, err := f.service.AddRating(context.Background(), "customer-1", ticket.ID, 4, "quick turnaround")
		require.NoError(t, err)
		require.NotNil(t, rated.Rating)
		assert.Equal(t, 4, rated.Rating.Score)

		_, err = f.service.AddRating(context.Background(), "customer-2", ticket.ID, 1, "")
		assertDomainCode(t, err, "FORBIDDEN")
	})
}

func TestReopen(t *testing.T) {
	f := newTicketFixture(t)
	admin := f.addAgent(t, domain.AgentRoleAdmin)
	assignee := f.addAgent(t, domain.AgentRoleAgent)
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	t.Run("open ticket cannot be reopened", func(t *testing.T) {
		_, err := f.service.Reopen(context.Background(), "customer-1", ticket.ID, "still broken")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("reopen clears resolution and bumps counter", func(t *testing.T) {
		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)
		_, err = f.service.Resolve(context.Background(), assignee, ticket.ID, "sealed")
		require.NoError(t, err)

		reopened, err := f.service.Reopen(context.Background(), "customer-1", ticket.ID, "leak came back")
		require.NoError(t, err)

		assert.Equal(t, domain.TicketStatusOpen, reopened.Status)
		assert.Nil(t, reopened.Resolution)
		assert.Nil(t, reopened.SLA.ResolutionTimeHours)
		assert.Equal(t, 1, reopened.ReopenedCount)
		require.NotEmpty(t, reopened.Comments)
		last := reopened.Comments[len(reopened.Comments)-1]
		assert.Contains(t, last.Text, "leak came back")
	})

	t.Run("only the owner can reopen", func(t *testing.T) {
		_, err := f.service.Resolve(context.Background(), assignee, ticket.ID, "sealed again")
		require.NoError(t, err)
		_, err = f.service.Reopen(context.Background(), "customer-2", ticket.ID, "mine now")
		assertDomainCode(t, err, "FORBIDDEN")
	})
}

func TestCloseTicket(t *testing.T) {
	f := newTicketFixture(t)
	admin := f.addAgent(t, domain.AgentRoleAdmin)
	assignee := f.addAgent(t, domain.AgentRoleAgent)
	ticket := f.createTicket(t, domain.TicketPriorityMedium)

	_, err := f.service.CloseTicket(context.Background(), "customer-1", ticket.ID)
	assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")

	_, err = f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
	require.NoError(t, err)
	_, err = f.service.Resolve(context.Background(), assignee, ticket.ID, "done")
	require.NoError(t, err)

	closed, err := f.service.CloseTicket(context.Background(), "customer-1", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestSLAEvaluationOnSave(t *testing.T) {
	t.Run("missed response deadline marks breach on next write", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		// The 2h urgent response target was already missed when the
		// next write lands, so the flag sticks even though the write
		// itself records a first response.
		f.clock.Advance(3 * time.Hour)
		updated, err := f.service.AddComment(context.Background(), domain.SubjectTypeCustomer, "customer-1", ticket.ID, CommentInput{
			Text: "hello? anyone there?",
		})
		require.NoError(t, err)
		assert.True(t, updated.SLA.Breached)
	})

	t.Run("closing from pending_customer after the deadline keeps the breach", func(t *testing.T) {
		f := newTicketFixture(t)
		admin := f.addAgent(t, domain.AgentRoleAdmin)
		assignee := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		_, err := f.service.AssignToAgent(context.Background(), admin, ticket.ID, assignee.ID)
		require.NoError(t, err)
		_, err = f.service.UpdateStatus(context.Background(), assignee, ticket.ID, domain.TicketStatusPendingCustomer, "waiting on photos")
		require.NoError(t, err)

		// Past the 24h urgent resolution target, the customer closes
		// without a resolution record; the stored flag must not reset.
		f.clock.Advance(30 * time.Hour)
		closed, err := f.service.CloseTicket(context.Background(), "customer-1", ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusClosed, closed.Status)
		assert.Nil(t, closed.Resolution)
		assert.True(t, closed.SLA.Breached)
	})

	t.Run("late response keeps the breach sticky", func(t *testing.T) {
		f := newTicketFixture(t)
		agent := f.addAgent(t, domain.AgentRoleAgent)
		ticket := f.createTicket(t, domain.TicketPriorityUrgent)

		f.clock.Advance(5 * time.Hour)
		updated, err := f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
			Text: "Sorry for the delay.",
		})
		require.NoError(t, err)
		assert.True(t, updated.SLA.Breached)
		require.NotNil(t, updated.SLA.ResponseTimeHours)
		assert.InDelta(t, 5.0, *updated.SLA.ResponseTimeHours, 0.001)
	})
}

func TestCustomerVisibility(t *testing.T) {
	f := newTicketFixture(t)
	agent := f.addAgent(t, domain.AgentRoleAgent)
	ticket := f.createTicket(t, domain.TicketPriorityLow)

	_, err := f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
		Text:     "internal escalation note",
		Internal: true,
	})
	require.NoError(t, err)
	_, err = f.service.AddComment(context.Background(), domain.SubjectTypeAgent, agent.ID, ticket.ID, CommentInput{
		Text: "We are looking into it.",
	})
	require.NoError(t, err)

	forCustomer, err := f.service.GetTicketForCustomer(context.Background(), "customer-1", ticket.ID)
	require.NoError(t, err)
	require.Len(t, forCustomer.Comments, 1)
	assert.Equal(t, "We are looking into it.", forCustomer.Comments[0].Text)

	forAgent, err := f.service.GetTicketForAgent(context.Background(), agent, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, forAgent.Comments, 2)

	_, err = f.service.GetTicketForCustomer(context.Background(), "customer-2", ticket.ID)
	assertDomainCode(t, err, "FORBIDDEN")
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, code, domainErr.Code)
}
