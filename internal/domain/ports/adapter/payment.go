package adapter

import "context"

// Intent is the provider-side payment intent created for an invoice.
type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent is a verified event decoded from a signed provider payload.
type WebhookEvent struct {
	Type     string
	IntentID string
	Metadata map[string]string
}

// PaymentGateway is the port to the external payment processor.
type PaymentGateway interface {
	Name() string
	CreateIntent(ctx context.Context, amountCents int64, currency string, meta map[string]string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID string) error
	CancelIntent(ctx context.Context, intentID string) error
	// VerifyWebhook checks the signature header against the raw payload and
	// decodes the event. Rejects replayed or forged payloads.
	VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error)
}
