package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtydesk/realty-service/internal/domain"
)

// EnquiryFilter captures enquiry search parameters.
type EnquiryFilter struct {
	CustomerID *string
	ProjectID  *string
	AgentID    *string
	Statuses   []domain.EnquiryStatus
	Limit      int
	Offset     int
}

// EnquiryRepository encapsulates enquiry persistence.
type EnquiryRepository interface {
	Create(ctx context.Context, enquiry *domain.Enquiry) error
	Update(ctx context.Context, enquiry *domain.Enquiry) error
	GetByID(ctx context.Context, id string) (*domain.Enquiry, error)
	ListWithFilter(ctx context.Context, filter EnquiryFilter) ([]domain.Enquiry, error)
}

type enquiryRepository struct {
	pool *pgxpool.Pool
}

// NewEnquiryRepository instantiates repository.
func NewEnquiryRepository(pool *pgxpool.Pool) EnquiryRepository {
	return &enquiryRepository{pool: pool}
}

func (r *enquiryRepository) Create(ctx context.Context, enquiry *domain.Enquiry) error {
	const query = `
        INSERT INTO enquiries (customer_id, project_id, message, source, status, agent_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		enquiry.CustomerID,
		enquiry.ProjectID,
		enquiry.Message,
		enquiry.Source,
		enquiry.Status,
		enquiry.AgentID,
	).Scan(&enquiry.ID, &enquiry.CreatedAt, &enquiry.UpdatedAt)
}

func (r *enquiryRepository) Update(ctx context.Context, enquiry *domain.Enquiry) error {
	const query = `
        UPDATE enquiries SET message=$1, source=$2, status=$3, agent_id=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		enquiry.Message,
		enquiry.Source,
		enquiry.Status,
		enquiry.AgentID,
		enquiry.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *enquiryRepository) GetByID(ctx context.Context, id string) (*domain.Enquiry, error) {
	const query = `
        SELECT id, customer_id, project_id, message, source, status, agent_id, created_at, updated_at
        FROM enquiries WHERE id=$1`
	var enquiry domain.Enquiry
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&enquiry.ID,
		&enquiry.CustomerID,
		&enquiry.ProjectID,
		&enquiry.Message,
		&enquiry.Source,
		&enquiry.Status,
		&enquiry.AgentID,
		&enquiry.CreatedAt,
		&enquiry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &enquiry, nil
}

func (r *enquiryRepository) ListWithFilter(ctx context.Context, filter EnquiryFilter) ([]domain.Enquiry, error) {
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
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, customer_id, project_id, message, source, status, agent_id, created_at, updated_at
        FROM enquiries WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Enquiry
	for rows.Next() {
		var enquiry domain.Enquiry
		if err := rows.Scan(
			&enquiry.ID,
			&enquiry.CustomerID,
			&enquiry.ProjectID,
			&enquiry.Message,
			&enquiry.Source,
			&enquiry.Status,
			&enquiry.AgentID,
			&enquiry.CreatedAt,
			&enquiry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, enquiry)
	}
	return result, rows.Err()
}
