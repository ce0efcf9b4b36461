package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// TicketReport is the typed ticket statistics snapshot.
type TicketReport struct {
	TotalCount         int64                            `json:"total_count"`
	ByStatus           map[domain.TicketStatus]int64    `json:"by_status"`
	ByPriority         map[domain.TicketPriority]int64  `json:"by_priority"`
	ByType             map[domain.TicketType]int64      `json:"by_type"`
	AvgResponseHours   *float64                         `json:"avg_response_hours,omitempty"`
	AvgResolutionHours *float64                         `json:"avg_resolution_hours,omitempty"`
	AvgRating          *float64                         `json:"avg_rating,omitempty"`
	BreachedCount      int64                            `json:"breached_count"`
	BreachRate         float64                          `json:"breach_rate"`
	GeneratedAt        time.Time                        `json:"generated_at"`
}

// PaymentReport is the typed revenue snapshot over successful payments.
type PaymentReport struct {
	ByType      []repository.PaymentTypeSummary `json:"by_type"`
	TotalCount  int64                           `json:"total_count"`
	TotalAmount int64                           `json:"total_amount"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// Defaulter is one overdue EMI entry with contact details attached.
type Defaulter struct {
	Payment       domain.Payment `json:"payment"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone"`
	DaysOverdue   int            `json:"days_overdue"`
}

// StatsService produces aggregated reports, memoized in Redis for a
// short TTL. Cache failures degrade to a direct query.
type StatsService struct {
	tickets   repository.TicketRepository
	payments  repository.PaymentRepository
	customers repository.CustomerRepository
	cache     *redis.Client
	logger    *zap.Logger
	cfg       config.StatsConfig
	grace     time.Duration
	now       func() time.Time
}

// StatsDependencies bundles inputs for the stats service.
type StatsDependencies struct {
	TicketRepo   repository.TicketRepository
	PaymentRepo  repository.PaymentRepository
	CustomerRepo repository.CustomerRepository
	Cache        *redis.Client
	Logger       *zap.Logger
	Config       config.StatsConfig
	GracePeriod  time.Duration
	Now          func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		tickets:   deps.TicketRepo,
		payments:  deps.PaymentRepo,
		customers: deps.CustomerRepo,
		cache:     deps.Cache,
		logger:    logger,
		cfg:       deps.Config,
		grace:     deps.GracePeriod,
		now:       now,
	}
}

// TicketReport aggregates ticket counts and SLA averages for a window.
func (s *StatsService) TicketReport(ctx context.Context, filter repository.TicketFilter) (*TicketReport, error) {
	key := s.cacheKey("tickets", filter.ProjectID, filter.CreatedFrom, filter.CreatedTo)
	var cached TicketReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	statuses, err := s.tickets.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	priorities, err := s.tickets.CountByPriority(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	types, err := s.tickets.CountByType(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	averages, err := s.tickets.Averages(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &TicketReport{
		TotalCount:         averages.TotalCount,
		ByStatus:           make(map[domain.TicketStatus]int64, len(statuses)),
		ByPriority:         make(map[domain.TicketPriority]int64, len(priorities)),
		ByType:             make(map[domain.TicketType]int64, len(types)),
		AvgResponseHours:   averages.AvgResponseHours,
		AvgResolutionHours: averages.AvgResolutionHours,
		AvgRating:          averages.AvgRating,
		BreachedCount:      averages.BreachedCount,
		GeneratedAt:        s.now(),
	}
	for _, entry := range statuses {
		report.ByStatus[entry.Status] = entry.Count
	}
	for _, entry := range priorities {
		report.ByPriority[entry.Priority] = entry.Count
	}
	for _, entry := range types {
		report.ByType[entry.Type] = entry.Count
	}
	if report.TotalCount > 0 {
		report.BreachRate = float64(report.BreachedCount) / float64(report.TotalCount)
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

// PaymentReport aggregates successful payments grouped by type.
func (s *StatsService) PaymentReport(ctx context.Context, filter repository.PaymentFilter) (*PaymentReport, error) {
	key := s.cacheKey("payments", filter.ProjectID, filter.CreatedFrom, filter.CreatedTo)
	var cached PaymentReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	summaries, err := s.payments.SummarizeByType(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := &PaymentReport{
		ByType:      summaries,
		GeneratedAt: s.now(),
	}
	for _, entry := range summaries {
		report.TotalCount += entry.Count
		report.TotalAmount += entry.TotalAmount
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

// EMIDefaulters lists pending EMI payments whose due date fell before
// now minus the grace period, oldest first.
func (s *StatsService) EMIDefaulters(ctx context.Context) ([]Defaulter, error) {
	now := s.now()
	cutoff := now.Add(-s.grace)
	payments, err := s.payments.ListEMIDefaulters(ctx, cutoff)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	defaulters := make([]Defaulter, 0, len(payments))
	for _, payment := range payments {
		entry := Defaulter{Payment: payment}
		if payment.Metadata.NextDueDate != nil {
			entry.DaysOverdue = int(now.Sub(*payment.Metadata.NextDueDate).Hours() / 24)
		}
		customer, err := s.customers.GetByID(ctx, payment.CustomerID)
		if err != nil {
			s.logger.Warn("defaulter customer lookup failed",
				zap.String("customer_id", payment.CustomerID), zap.Error(err))
		} else {
			entry.CustomerName = customer.Name
			entry.CustomerEmail = customer.Email
			entry.CustomerPhone = customer.Phone
		}
		defaulters = append(defaulters, entry)
	}
	return defaulters, nil
}

func (s *StatsService) cacheKey(kind string, projectID *string, from, to *time.Time) string {
	project := "all"
	if projectID != nil {
		project = *projectID
	}
	window := "open"
	if from != nil || to != nil {
		var lo, hi string
		if from != nil {
			lo = from.UTC().Format(time.RFC3339)
		}
		if to != nil {
			hi = to.UTC().Format(time.RFC3339)
		}
		window = lo + ".." + hi
	}
	return fmt.Sprintf("stats:%s:%s:%s", kind, project, window)
}

func (s *StatsService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("stats cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *StatsService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL()).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
