package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"paintball2go-backend/internal/config"
	"paintball2go-backend/internal/domain/ports/adapter"
)

const resendEndpoint = "https://api.resend.com/emails"

var _ adapter.EmailSender = (*ResendSender)(nil)

// ResendSender delivers transactional and campaign email through the Resend
// HTTP API, one message per call.
type ResendSender struct {
	apiKey string
	from   string
	client *http.Client
	log    *zerolog.Logger
}

func NewResendSender(cfg *config.EmailConfig, logger *zerolog.Logger) *ResendSender {
	return &ResendSender{
		apiKey: cfg.ResendAPIKey,
		from:   cfg.FromAddress,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.log.Warn().Int("status", resp.StatusCode).Str("to", to).Msg("resend API error")
		return fmt.Errorf("resend %s: %s", resp.Status, body)
	}
	return nil
}
