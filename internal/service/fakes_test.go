package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/events"
	"github.com/realtydesk/realty-service/internal/invoice"
	"github.com/realtydesk/realty-service/internal/repository"
)

// In-memory repository fakes. GetByID returns copies so mutations only
// land through Update, mirroring how the real repositories behave.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	nextID  int
	now     func() time.Time
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket), now: time.Now}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TicketNumber == number {
			t := ticket
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, _ repository.TicketFilter) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TicketStatus]int64)
	for _, ticket := range r.tickets {
		counts[ticket.Status]++
	}
	var result []repository.StatusCount
	for status, count := range counts {
		result = append(result, repository.StatusCount{Status: status, Count: count})
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByPriority(_ context.Context, _ repository.TicketFilter) ([]repository.PriorityCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TicketPriority]int64)
	for _, ticket := range r.tickets {
		counts[ticket.Priority]++
	}
	var result []repository.PriorityCount
	for priority, count := range counts {
		result = append(result, repository.PriorityCount{Priority: priority, Count: count})
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByType(_ context.Context, _ repository.TicketFilter) ([]repository.TypeCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TicketType]int64)
	for _, ticket := range r.tickets {
		counts[ticket.Type]++
	}
	var result []repository.TypeCount
	for ticketType, count := range counts {
		result = append(result, repository.TypeCount{Type: ticketType, Count: count})
	}
	return result, nil
}

func (r *fakeTicketRepo) Averages(_ context.Context, _ repository.TicketFilter) (*repository.TicketAverages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	avg := &repository.TicketAverages{}
	var responseSum, resolutionSum, ratingSum float64
	var responseN, resolutionN, ratingN int64
	for _, ticket := range r.tickets {
		avg.TotalCount++
		if ticket.SLA.Breached {
			avg.BreachedCount++
		}
		if ticket.SLA.ResponseTimeHours != nil {
			responseSum += *ticket.SLA.ResponseTimeHours
			responseN++
		}
		if ticket.SLA.ResolutionTimeHours != nil {
			resolutionSum += *ticket.SLA.ResolutionTimeHours
			resolutionN++
		}
		if ticket.Rating != nil {
			ratingSum += float64(ticket.Rating.Score)
			ratingN++
		}
	}
	if responseN > 0 {
		v := responseSum / float64(responseN)
		avg.AvgResponseHours = &v
	}
	if resolutionN > 0 {
		v := resolutionSum / float64(resolutionN)
		avg.AvgResolutionHours = &v
	}
	if ratingN > 0 {
		v := ratingSum / float64(ratingN)
		avg.AvgRating = &v
	}
	return avg, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
	nextID   int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]domain.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	payment.ID = fmt.Sprintf("payment-%d", r.nextID)
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return pgx.ErrNoRows
	}
	payment.UpdatedAt = time.Now()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &payment, nil
}

func (r *fakePaymentRepo) ListWithFilter(_ context.Context, filter repository.PaymentFilter) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Payment
	for _, payment := range r.payments {
		if filter.CustomerID != nil && payment.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, payment)
	}
	return result, nil
}

func (r *fakePaymentRepo) SummarizeByType(_ context.Context, _ repository.PaymentFilter) ([]repository.PaymentTypeSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := make(map[domain.PaymentType]*repository.PaymentTypeSummary)
	for _, payment := range r.payments {
		if payment.Status != domain.PaymentStatusSuccess {
			continue
		}
		entry, ok := byType[payment.Type]
		if !ok {
			entry = &repository.PaymentTypeSummary{Type: payment.Type}
			byType[payment.Type] = entry
		}
		entry.Count++
		entry.TotalAmount += payment.Amount
	}
	var result []repository.PaymentTypeSummary
	for _, entry := range byType {
		entry.AvgAmount = float64(entry.TotalAmount) / float64(entry.Count)
		result = append(result, *entry)
	}
	return result, nil
}

func (r *fakePaymentRepo) ListEMIDefaulters(_ context.Context, dueBefore time.Time) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Payment
	for _, payment := range r.payments {
		if payment.Type != domain.PaymentTypeEMI || payment.Status != domain.PaymentStatusPending {
			continue
		}
		if payment.Metadata.NextDueDate == nil || !payment.Metadata.NextDueDate.Before(dueBefore) {
			continue
		}
		result = append(result, payment)
	}
	return result, nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]domain.Customer
	nextID    int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]domain.Customer)}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	customer.ID = fmt.Sprintf("customer-%d", r.nextID)
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	r.customers[customer.ID] = *customer
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[customer.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.customers[customer.ID] = *customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &customer, nil
}

func (r *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.customers {
		if customer.Email == email {
			c := customer
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[string]domain.Agent
	nextID int
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[string]domain.Agent)}
}

func (r *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	agent.ID = fmt.Sprintf("agent-%d", r.nextID)
	agent.CreatedAt = time.Now()
	agent.UpdatedAt = agent.CreatedAt
	r.agents[agent.ID] = *agent
	return nil
}

func (r *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.agents[agent.ID] = *agent
	return nil
}

func (r *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}

func (r *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range r.agents {
		if agent.Email == email {
			a := agent
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAgentRepo) ListActive(_ context.Context, _, _ int) ([]domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Agent
	for _, agent := range r.agents {
		if agent.Active {
			result = append(result, agent)
		}
	}
	return result, nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]domain.Project
	nextID   int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]domain.Project)}
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	project.ID = fmt.Sprintf("project-%d", r.nextID)
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &project, nil
}

func (r *fakeProjectRepo) ListWithFilter(_ context.Context, _ repository.ProjectFilter) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Project
	for _, project := range r.projects {
		result = append(result, project)
	}
	return result, nil
}

type fakeSequenceRepo struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counts: make(map[string]int64)}
}

func (r *fakeSequenceRepo) Next(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
	return r.counts[name], nil
}

type fakeEnquiryRepo struct {
	mu        sync.Mutex
	enquiries map[string]domain.Enquiry
	nextID    int
}

func newFakeEnquiryRepo() *fakeEnquiryRepo {
	return &fakeEnquiryRepo{enquiries: make(map[string]domain.Enquiry)}
}

func (r *fakeEnquiryRepo) Create(_ context.Context, enquiry *domain.Enquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	enquiry.ID = fmt.Sprintf("enquiry-%d", r.nextID)
	enquiry.CreatedAt = time.Now()
	enquiry.UpdatedAt = enquiry.CreatedAt
	r.enquiries[enquiry.ID] = *enquiry
	return nil
}

func (r *fakeEnquiryRepo) Update(_ context.Context, enquiry *domain.Enquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enquiries[enquiry.ID]; !ok {
		return pgx.ErrNoRows
	}
	enquiry.UpdatedAt = time.Now()
	r.enquiries[enquiry.ID] = *enquiry
	return nil
}

func (r *fakeEnquiryRepo) GetByID(_ context.Context, id string) (*domain.Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enquiry, ok := r.enquiries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &enquiry, nil
}

func (r *fakeEnquiryRepo) ListWithFilter(_ context.Context, filter repository.EnquiryFilter) ([]domain.Enquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Enquiry
	for _, enquiry := range r.enquiries {
		if filter.CustomerID != nil && enquiry.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.ProjectID != nil && enquiry.ProjectID != *filter.ProjectID {
			continue
		}
		result = append(result, enquiry)
	}
	return result, nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]repository.PasswordResetToken
	nextID int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]repository.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = fmt.Sprintf("reset-%d", r.nextID)
	token.CreatedAt = time.Now()
	r.tokens[token.ID] = *token
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.Token == tokenStr {
			t := token
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	token.UsedAt = &now
	r.tokens[id] = token
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type failingRenderer struct{}

func (failingRenderer) Render(invoice.Data) ([]byte, error) {
	return nil, fmt.Errorf("template boom")
}
