package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/events"
	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/sla"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

const (
	maxSubjectLen     = 200
	maxDescriptionLen = 5000
	maxCommentLen     = 5000
)

// TicketService coordinates the ticket lifecycle state machine.
type TicketService struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	sequences  repository.SequenceRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	AgentRepo    repository.AgentRepository
	SequenceRepo repository.SequenceRepository
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID   *string
	Type        domain.TicketType
	Category    string
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// CommentInput describes a new ticket comment.
type CommentInput struct {
	Text        string
	Internal    bool
	Attachments []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		sequences:  deps.SequenceRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateTicket opens a new ticket for a customer. The ticket number
// comes from an atomic counter so concurrent creations cannot collide,
// and the SLA deadlines are fixed here from the priority.
func (s *TicketService) CreateTicket(ctx context.Context, customerID string, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}
	if len(subject) > maxSubjectLen || len(description) > maxDescriptionLen {
		return nil, apperrors.NewValidationError("subject or description too long", map[string]any{
			"max_subject":     maxSubjectLen,
			"max_description": maxDescriptionLen,
		})
	}

	seq, err := s.sequences.Next(ctx, repository.SequenceTicket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	createdAt := s.now()
	ticket := &domain.Ticket{
		TicketNumber: repository.FormatNumber("TKT", createdAt, seq),
		CustomerID:   customerID,
		ProjectID:    input.ProjectID,
		Type:         input.Type,
		Category:     strings.TrimSpace(input.Category),
		Subject:      subject,
		Description:  description,
		Priority:     input.Priority,
		Status:       domain.TicketStatusOpen,
	}
	if ticket.Type == "" {
		ticket.Type = domain.TicketTypeQuery
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	ticket.SLA = sla.NewRecord(ticket.Priority, createdAt)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		EntityID: ticket.ID,
		Actor:    customerActor(customerID),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Priority:     ticket.Priority,
			Type:         ticket.Type,
			Subject:      ticket.Subject,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket thread. The first
// agent-authored comment stamps the SLA first-response milestone.
func (s *TicketService) AddComment(ctx context.Context, actor domain.SubjectType, actorID, ticketID string, input CommentInput) (*domain.Ticket, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}
	if len(text) > maxCommentLen {
		return nil, apperrors.NewValidationError("comment too long", map[string]any{"max": maxCommentLen})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := domain.TicketComment{
		Text:        text,
		AuthorID:    actorID,
		Internal:    input.Internal,
		Attachments: input.Attachments,
		CreatedAt:   s.now(),
	}

	switch actor {
	case domain.SubjectTypeCustomer:
		if ticket.CustomerID != actorID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if input.Internal {
			return nil, apperrors.NewForbidden("customers cannot post internal comments")
		}
		comment.AuthorType = domain.CommentAuthorCustomer
	case domain.SubjectTypeAgent:
		comment.AuthorType = domain.CommentAuthorAgent
	default:
		return nil, apperrors.NewUnauthorized("unknown actor")
	}

	ticket.Comments = append(ticket.Comments, comment)

	// A qualifying response is any non-internal comment, or an
	// agent-authored one even when internal.
	qualifies := !comment.Internal || comment.AuthorType == domain.CommentAuthorAgent
	if qualifies && ticket.SLA.FirstResponseAt == nil {
		respondedAt := comment.CreatedAt
		elapsed := respondedAt.Sub(ticket.CreatedAt).Hours()
		ticket.SLA.FirstResponseAt = &respondedAt
		ticket.SLA.ResponseTimeHours = &elapsed
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		EntityID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketCommentAddedPayload{
			AuthorType:  comment.AuthorType,
			Internal:    comment.Internal,
			BodyPreview: stringPreview(comment.Text, 120),
		},
	})
	return ticket, nil
}

// AssignToAgent sets the assignee and forces the ticket into review.
// Admin only.
func (s *TicketService) AssignToAgent(ctx context.Context, actor *domain.Agent, ticketID, assigneeID string) (*domain.Ticket, error) {
	if actor == nil || actor.Role != domain.AgentRoleAdmin {
		return nil, apperrors.NewForbidden("admin role required for assignment")
	}
	assignee, err := s.agents.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"agent_id": assigneeID})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	ticket.AssigneeID = &assignee.ID
	ticket.Status = domain.TicketStatusInReview
	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		EntityID: ticket.ID,
		Actor:    agentActor(actor.ID),
		Payload:  events.TicketAssignedPayload{AssigneeID: assignee.ID},
	})
	if oldStatus != ticket.Status {
		s.publishStatusChange(ctx, agentActor(actor.ID), ticket.ID, oldStatus, ticket.Status, "assigned")
	}
	return ticket, nil
}

// UpdateStatus moves the ticket along the allowed transitions. Agent
// only; resolve and reopen have their own operations.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Agent, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewDomainRule("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusClosed {
		now := s.now()
		ticket.ClosedAt = &now
	}
	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, agentActor(actor.ID), ticket.ID, oldStatus, newStatus, comment)
	return ticket, nil
}

// Resolve marks the ticket resolved and records the resolution.
// Admin or agent only; resolving twice is a domain rule violation.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.Agent, ticketID, text string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("resolution text required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewDomainRule("ticket already resolved", nil)
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewDomainRule("ticket closed", nil)
	}

	resolvedAt := s.now()
	elapsed := resolvedAt.Sub(ticket.CreatedAt).Hours()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	ticket.Resolution = &domain.Resolution{
		Text:         strings.TrimSpace(text),
		ResolvedByID: actor.ID,
		ResolvedAt:   resolvedAt,
	}
	ticket.SLA.ResolutionTimeHours = &elapsed

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		EntityID: ticket.ID,
		Actor:    agentActor(actor.ID),
		Payload: events.TicketResolvedPayload{
			ResolvedByID:        actor.ID,
			ResolutionTimeHours: elapsed,
			Breached:            ticket.SLA.Breached,
		},
	})
	s.publishStatusChange(ctx, agentActor(actor.ID), ticket.ID, oldStatus, ticket.Status, "resolved")
	return ticket, nil
}

// Reopen returns a resolved or closed ticket to open. Owner only.
// Clears the resolution, bumps the reopen counter and leaves a system
// comment authored as the owning customer.
func (s *TicketService) Reopen(ctx context.Context, customerID, ticketID, reason string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !ticket.IsFinished() {
		return nil, apperrors.NewDomainRule("only resolved or closed tickets can be reopened", map[string]any{
			"status": ticket.Status,
		})
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusOpen
	ticket.Resolution = nil
	ticket.SLA.ResolutionTimeHours = nil
	ticket.ReopenedCount++
	ticket.ReopenedAt = &now
	ticket.ClosedAt = nil
	ticket.Comments = append(ticket.Comments, domain.TicketComment{
		Text:       "Ticket reopened: " + strings.TrimSpace(reason),
		AuthorType: domain.CommentAuthorCustomer,
		AuthorID:   customerID,
		CreatedAt:  now,
	})

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReopened,
		EntityID: ticket.ID,
		Actor:    customerActor(customerID),
		Payload: events.TicketReopenedPayload{
			Reason:        reason,
			ReopenedCount: ticket.ReopenedCount,
		},
	})
	s.publishStatusChange(ctx, customerActor(customerID), ticket.ID, oldStatus, ticket.Status, "reopened")
	return ticket, nil
}

// AddRating records customer feedback. Owner only, and only once the
// ticket is resolved or closed.
func (s *TicketService) AddRating(ctx context.Context, customerID, ticketID string, score int, feedback string) (*domain.Ticket, error) {
	if score < 1 || score > 5 {
		return nil, apperrors.NewValidationError("score must be between 1 and 5", map[string]any{"score": score})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !ticket.IsFinished() {
		return nil, apperrors.NewDomainRule("ticket can be rated only after resolution", map[string]any{
			"status": ticket.Status,
		})
	}

	ticket.Rating = &domain.Rating{
		Score:    score,
		Feedback: strings.TrimSpace(feedback),
		RatedAt:  s.now(),
	}
	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CloseTicket closes a ticket on the customer's behalf. Valid from
// resolved and pending_customer.
func (s *TicketService) CloseTicket(ctx context.Context, customerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusPendingCustomer {
		return nil, apperrors.NewDomainRule("ticket cannot be closed in current status", map[string]any{
			"status": ticket.Status,
		})
	}
	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, customerActor(customerID), ticket.ID, oldStatus, ticket.Status, "customer_closed")
	return ticket, nil
}

// ListCustomerTickets returns paginated tickets for an owner.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customerID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	filter.CustomerID = &customerID
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range tickets {
		tickets[i].Comments = visibleComments(tickets[i].Comments)
	}
	return tickets, nil
}

// GetTicketForCustomer fetches a ticket ensuring ownership, internal
// comments stripped.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket.Comments = visibleComments(ticket.Comments)
	return ticket, nil
}

// ListAgentTickets returns tickets matching a filter for staff views.
func (s *TicketService) ListAgentTickets(ctx context.Context, actor *domain.Agent, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicketForAgent fetches a ticket with the full comment thread.
func (s *TicketService) GetTicketForAgent(ctx context.Context, actor *domain.Agent, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	return s.getTicket(ctx, ticketID)
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// saveTicket re-evaluates the SLA breach flag and persists the whole
// entity, keeping the stored flag fresh on every mutation.
func (s *TicketService) saveTicket(ctx context.Context, ticket *domain.Ticket) error {
	ticket.SLA.Breached = sla.Evaluate(ticket, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func visibleComments(comments []domain.TicketComment) []domain.TicketComment {
	filtered := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.Internal {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:            {domain.TicketStatusInReview},
	domain.TicketStatusInReview:        {domain.TicketStatusPendingCustomer, domain.TicketStatusResolved},
	domain.TicketStatusPendingCustomer: {domain.TicketStatusInReview, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:        {domain.TicketStatusClosed},
	domain.TicketStatusClosed:          {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) publishStatusChange(ctx context.Context, actor events.Actor, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		EntityID: ticketID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func customerActor(customerID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeCustomer,
		CustomerID: &customerID,
	}
}

func agentActor(agentID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeAgent,
		AgentID: &agentID,
	}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	switch subject {
	case domain.SubjectTypeAgent:
		return agentActor(id)
	default:
		return customerActor(id)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
