package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"paintball2go-backend/internal/config"
	"paintball2go-backend/internal/domain/ports/adapter"
)

const apiBase = "https://api.stripe.com/v1"

// webhookTolerance bounds how old a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway drives the Stripe PaymentIntents API over its form-encoded
// REST surface.
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	client        *http.Client
	log           *zerolog.Logger
	now           func() time.Time
}

func NewStripeGateway(cfg *config.StripeConfig, logger *zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		client:        &http.Client{Timeout: 15 * time.Second},
		log:           logger,
		now:           time.Now,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, meta map[string]string) (*adapter.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range meta {
		form.Set("metadata["+k+"]", v)
	}

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := g.do(ctx, http.MethodPost, "/payment_intents", form, &out); err != nil {
		return nil, err
	}
	return &adapter.Intent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, intentID string) error {
	return g.do(ctx, http.MethodPost, "/payment_intents/"+intentID+"/confirm", url.Values{}, nil)
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	return g.do(ctx, http.MethodPost, "/payment_intents/"+intentID+"/cancel", url.Values{}, nil)
}

// VerifyWebhook checks the Stripe-Signature header (t=<ts>,v1=<hmac>) against
// the raw payload and decodes the event. Signatures older than the tolerance
// window are rejected as replays.
func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*adapter.WebhookEvent, error) {
	ts, sigs, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}
	if g.now().Sub(time.Unix(ts, 0)) > webhookTolerance {
		return nil, fmt.Errorf("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	expected := mac.Sum(nil)

	var valid bool
	for _, s := range sigs {
		got, err := hex.DecodeString(s)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("webhook signature mismatch")
	}

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
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &adapter.WebhookEvent{
		Type:     event.Type,
		IntentID: event.Data.Object.ID,
		Metadata: event.Data.Object.Metadata,
	}, nil
}

func parseSigHeader(header string) (int64, []string, error) {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature timestamp")
			}
			ts = v
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return ts, sigs, nil
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe response: %w", err)
	}
	if resp.StatusCode >= 400 {
		g.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("stripe API error")
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("stripe %s: %s", resp.Status, apiErr.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
