package email

import (
	"context"

	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain/ports/adapter"
)

var _ adapter.EmailSender = (*NoopSender)(nil)

// NoopSender logs instead of delivering; used in dev runs without an API key.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	return &NoopSender{log: logger}
}

func (s *NoopSender) Send(_ context.Context, to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email suppressed (noop sender)")
	return nil
}
