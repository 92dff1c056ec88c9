package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"paintball2go-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway stands in for Stripe in dev and sandbox runs. Every intent
// succeeds and webhooks skip signature verification.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateIntent(_ context.Context, amountCents int64, currency string, _ map[string]string) (*adapter.Intent, error) {
	id := "pi_noop_" + uuid.NewString()
	return &adapter.Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%d%s", id, amountCents, currency),
	}, nil
}

func (g *NoopGateway) ConfirmIntent(context.Context, string) error { return nil }

func (g *NoopGateway) CancelIntent(context.Context, string) error { return nil }

func (g *NoopGateway) VerifyWebhook(payload []byte, _ string) (*adapter.WebhookEvent, error) {
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &adapter.WebhookEvent{Type: event.Type, IntentID: event.Data.Object.ID, Metadata: event.Data.Object.Metadata}, nil
}
