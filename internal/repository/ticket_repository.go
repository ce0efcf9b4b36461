package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtydesk/realty-service/internal/domain"
)

// TicketFilter captures search parameters for tickets. Stats queries
// accept the same filter so reports can be scoped by customer,
// project or date range.
type TicketFilter struct {
	CustomerID  *string
	ProjectID   *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Types       []domain.TicketType
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// StatusCount is one bucket of a grouped ticket count.
type StatusCount struct {
	Status domain.TicketStatus
	Count  int64
}

// PriorityCount is one bucket of a per-priority count.
type PriorityCount struct {
	Priority domain.TicketPriority
	Count    int64
}

// TypeCount is one bucket of a per-type count.
type TypeCount struct {
	Type  domain.TicketType
	Count int64
}

// TicketAverages carries the derived SLA/rating aggregates.
type TicketAverages struct {
	AvgResponseHours   *float64
	AvgResolutionHours *float64
	AvgRating          *float64
	BreachedCount      int64
	TotalCount         int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) ([]StatusCount, error)
	CountByPriority(ctx context.Context, filter TicketFilter) ([]PriorityCount, error)
	CountByType(ctx context.Context, filter TicketFilter) ([]TypeCount, error)
	Averages(ctx context.Context, filter TicketFilter) (*TicketAverages, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, customer_id, project_id, type, category, subject, description,
               priority, status, assignee_id, comments, resolution, rating, sla,
               reopened_count, reopened_at, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, customer_id, project_id, type, category, subject, description,
                             priority, status, assignee_id, comments, resolution, rating, sla, reopened_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CustomerID,
		ticket.ProjectID,
		ticket.Type,
		ticket.Category,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.Comments,
		ticket.Resolution,
		ticket.Rating,
		ticket.SLA,
		ticket.ReopenedCount,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, status=$2, assignee_id=$3, comments=$4, resolution=$5,
            rating=$6, sla=$7, reopened_count=$8, reopened_at=$9, closed_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.Comments,
		ticket.Resolution,
		ticket.Rating,
		ticket.SLA,
		ticket.ReopenedCount,
		ticket.ReopenedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CustomerID,
		&ticket.ProjectID,
		&ticket.Type,
		&ticket.Category,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.Comments,
		&ticket.Resolution,
		&ticket.Rating,
		&ticket.SLA,
		&ticket.ReopenedCount,
		&ticket.ReopenedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := ticketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) ([]StatusCount, error) {
	clauses, args := ticketClauses(filter)
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM tickets WHERE %s GROUP BY status`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var entry StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByPriority(ctx context.Context, filter TicketFilter) ([]PriorityCount, error) {
	clauses, args := ticketClauses(filter)
	query := fmt.Sprintf(`SELECT priority, COUNT(*) FROM tickets WHERE %s GROUP BY priority`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriorityCount
	for rows.Next() {
		var entry PriorityCount
		if err := rows.Scan(&entry.Priority, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByType(ctx context.Context, filter TicketFilter) ([]TypeCount, error) {
	clauses, args := ticketClauses(filter)
	query := fmt.Sprintf(`SELECT type, COUNT(*) FROM tickets WHERE %s GROUP BY type`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TypeCount
	for rows.Next() {
		var entry TypeCount
		if err := rows.Scan(&entry.Type, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Averages(ctx context.Context, filter TicketFilter) (*TicketAverages, error) {
	clauses, args := ticketClauses(filter)
	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE (sla->>'breached')::bool),
               AVG((sla->>'response_time_hours')::float8),
               AVG((sla->>'resolution_time_hours')::float8),
               AVG((rating->>'score')::int)
        FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var avg TicketAverages
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&avg.TotalCount,
		&avg.BreachedCount,
		&avg.AvgResponseHours,
		&avg.AvgResolutionHours,
		&avg.AvgRating,
	); err != nil {
		return nil, err
	}
	return &avg, nil
}

func ticketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, tp := range filter.Types {
			args = append(args, tp)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return clauses, args
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.CustomerID,
			&ticket.ProjectID,
			&ticket.Type,
			&ticket.Category,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.AssigneeID,
			&ticket.Comments,
			&ticket.Resolution,
			&ticket.Rating,
			&ticket.SLA,
			&ticket.ReopenedCount,
			&ticket.ReopenedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
