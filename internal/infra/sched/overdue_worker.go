package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"paintball2go-backend/internal/usecase"
)

// OverdueWorker periodically flips sent invoices past their due date to
// overdue via the use case.
type OverdueWorker struct {
	interval  time.Duration
	invoiceUC usecase.InvoiceUseCase
	log       *zerolog.Logger
}

func NewOverdueWorker(interval time.Duration, invoiceUC usecase.InvoiceUseCase, logger *zerolog.Logger) *OverdueWorker {
	compLog := logger.With().Str("component", "OverdueWorker").Logger()
	return &OverdueWorker{
		interval:  interval,
		invoiceUC: invoiceUC,
		log:       &compLog,
	}
}

func (w *OverdueWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting overdue worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping overdue worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.invoiceUC.MarkOverdueDue(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("overdue sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("invoices marked overdue")
			}
		}
	}
}
