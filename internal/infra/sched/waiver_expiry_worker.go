package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"paintball2go-backend/internal/usecase"
)

// WaiverExpiryWorker sweeps active waivers past their expiry date.
type WaiverExpiryWorker struct {
	interval time.Duration
	waiverUC usecase.WaiverUseCase
	log      *zerolog.Logger
}

func NewWaiverExpiryWorker(interval time.Duration, waiverUC usecase.WaiverUseCase, logger *zerolog.Logger) *WaiverExpiryWorker {
	compLog := logger.With().Str("component", "WaiverExpiryWorker").Logger()
	return &WaiverExpiryWorker{
		interval: interval,
		waiverUC: waiverUC,
		log:      &compLog,
	}
}

func (w *WaiverExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting waiver expiry worker")
	// Run once on startup, then on every tick.
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping waiver expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *WaiverExpiryWorker) sweep(ctx context.Context) {
	n, err := w.waiverUC.ExpireDue(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("waiver expiry sweep error")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("waivers expired")
	}
}
