package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/sla"
)

const sweepBatchSize = 500

// SLASweep periodically re-evaluates deadlines on unfinished tickets so
// breaches surface even when a ticket sees no writes.
type SLASweep struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
	cfg     config.SweepConfig
	now     func() time.Time
}

// NewSLASweep constructs the sweep worker.
func NewSLASweep(tickets repository.TicketRepository, logger *zap.Logger, cfg config.SweepConfig) *SLASweep {
	return &SLASweep{
		tickets: tickets,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled. Returns
// immediately when the sweep is disabled.
func (w *SLASweep) Start(ctx context.Context) {
	if !w.cfg.Enabled {
		w.logger.Info("sla sweep disabled")
		return
	}
	go w.loop(ctx)
}

func (w *SLASweep) loop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval())
	defer ticker.Stop()

	w.logger.Info("sla sweep started", zap.Duration("interval", w.cfg.Interval()))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sla sweep stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce scans open tickets in pages and persists newly detected
// breaches.
func (w *SLASweep) runOnce(ctx context.Context) {
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInReview,
			domain.TicketStatusPendingCustomer,
		},
		Limit: sweepBatchSize,
	}

	var flagged int
	for offset := 0; ; offset += sweepBatchSize {
		filter.Offset = offset
		tickets, err := w.tickets.ListWithFilter(ctx, filter)
		if err != nil {
			w.logger.Error("sla sweep list failed", zap.Error(err))
			return
		}
		if len(tickets) == 0 {
			break
		}

		now := w.now()
		for i := range tickets {
			ticket := &tickets[i]
			if ticket.SLA.Breached || !sla.Evaluate(ticket, now) {
				continue
			}
			ticket.SLA.Breached = true
			if err := w.tickets.Update(ctx, ticket); err != nil {
				w.logger.Error("sla sweep update failed",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
				continue
			}
			flagged++
		}
		if len(tickets) < sweepBatchSize {
			break
		}
	}

	if flagged > 0 {
		w.logger.Info("sla sweep flagged breaches", zap.Int("count", flagged))
	}
}
