package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Counter names used for human-readable document numbers.
const (
	SequenceTicket  = "ticket"
	SequenceReceipt = "receipt"
)

// SequenceRepository hands out monotonically increasing values from
// dedicated counter rows. The atomic upsert keeps concurrent creations
// from racing to the same number.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository instantiates repository.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	const query = `
        INSERT INTO counters (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
        RETURNING value`
	var value int64
	if err := r.pool.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// FormatNumber renders a document number like TKT-202503-000042.
func FormatNumber(prefix string, at time.Time, value int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, at.Format("200601"), value)
}
