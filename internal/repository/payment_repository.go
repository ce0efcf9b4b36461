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

// PaymentFilter captures payment search parameters.
type PaymentFilter struct {
	CustomerID  *string
	ProjectID   *string
	Statuses    []domain.PaymentStatus
	Types       []domain.PaymentType
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// PaymentTypeSummary aggregates successful payments for one type.
type PaymentTypeSummary struct {
	Type        domain.PaymentType
	Count       int64
	TotalAmount int64
	AvgAmount   float64
}

// PaymentRepository encapsulates payment persistence.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListWithFilter(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	SummarizeByType(ctx context.Context, filter PaymentFilter) ([]PaymentTypeSummary, error)
	ListEMIDefaulters(ctx context.Context, dueBefore time.Time) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, customer_id, project_id, amount, currency, type, method, status,
               gateway, receipt_number, metadata, refund, failure_reason, attempts,
               paid_at, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (customer_id, project_id, amount, currency, type, method, status,
                              gateway, receipt_number, metadata, refund, failure_reason, attempts, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		payment.CustomerID,
		payment.ProjectID,
		payment.Amount,
		payment.Currency,
		payment.Type,
		payment.Method,
		payment.Status,
		payment.Gateway,
		payment.ReceiptNumber,
		payment.Metadata,
		payment.Refund,
		payment.FailureReason,
		payment.Attempts,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	const query = `
        UPDATE payments SET status=$1, gateway=$2, receipt_number=$3, metadata=$4, refund=$5,
            failure_reason=$6, attempts=$7, paid_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		payment.Status,
		payment.Gateway,
		payment.ReceiptNumber,
		payment.Metadata,
		payment.Refund,
		payment.FailureReason,
		payment.Attempts,
		payment.PaidAt,
		payment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	var payment domain.Payment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.CustomerID,
		&payment.ProjectID,
		&payment.Amount,
		&payment.Currency,
		&payment.Type,
		&payment.Method,
		&payment.Status,
		&payment.Gateway,
		&payment.ReceiptNumber,
		&payment.Metadata,
		&payment.Refund,
		&payment.FailureReason,
		&payment.Attempts,
		&payment.PaidAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListWithFilter(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	clauses, args := paymentClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		paymentColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// SummarizeByType aggregates only successful payments, grouped by
// payment type.
func (r *paymentRepository) SummarizeByType(ctx context.Context, filter PaymentFilter) ([]PaymentTypeSummary, error) {
	filter.Statuses = []domain.PaymentStatus{domain.PaymentStatusSuccess}
	clauses, args := paymentClauses(filter)

	query := fmt.Sprintf(`
        SELECT type, COUNT(*), COALESCE(SUM(amount),0), COALESCE(AVG(amount),0)
        FROM payments WHERE %s GROUP BY type`, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PaymentTypeSummary
	for rows.Next() {
		var entry PaymentTypeSummary
		if err := rows.Scan(&entry.Type, &entry.Count, &entry.TotalAmount, &entry.AvgAmount); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// ListEMIDefaulters returns pending EMI payments whose next due date
// precedes the cutoff.
func (r *paymentRepository) ListEMIDefaulters(ctx context.Context, dueBefore time.Time) ([]domain.Payment, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM payments
        WHERE type=$1 AND status=$2
          AND metadata->>'next_due_date' IS NOT NULL
          AND (metadata->>'next_due_date')::timestamptz < $3
        ORDER BY (metadata->>'next_due_date')::timestamptz ASC`, paymentColumns)

	rows, err := r.pool.Query(ctx, query, domain.PaymentTypeEMI, domain.PaymentStatusPending, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func paymentClauses(filter PaymentFilter) ([]string, []any) {
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
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
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

func scanPayments(rows pgx.Rows) ([]domain.Payment, error) {
	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.CustomerID,
			&payment.ProjectID,
			&payment.Amount,
			&payment.Currency,
			&payment.Type,
			&payment.Method,
			&payment.Status,
			&payment.Gateway,
			&payment.ReceiptNumber,
			&payment.Metadata,
			&payment.Refund,
			&payment.FailureReason,
			&payment.Attempts,
			&payment.PaidAt,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
