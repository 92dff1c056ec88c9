//go:build !integration

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signedHeader(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func testGateway(secret string, now time.Time) *StripeGateway {
	return &StripeGateway{
		webhookSecret: secret,
		now:           func() time.Time { return now },
	}
}

func TestVerifyWebhook(t *testing.T) {
	secret := "whsec_test"
	now := time.Unix(1_760_000_000, 0)
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","metadata":{"invoice_id":"inv-1"}}}}`)

	t.Run("should accept a fresh valid signature and decode the event", func(t *testing.T) {
		g := testGateway(secret, now)
		event, err := g.VerifyWebhook(payload, signedHeader(secret, now.Unix(), payload))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Type != "payment_intent.succeeded" {
			t.Errorf("type = %q", event.Type)
		}
		if event.IntentID != "pi_123" {
			t.Errorf("intent id = %q", event.IntentID)
		}
		if event.Metadata["invoice_id"] != "inv-1" {
			t.Errorf("metadata = %v", event.Metadata)
		}
	})

	t.Run("should reject a forged signature", func(t *testing.T) {
		g := testGateway(secret, now)
		if _, err := g.VerifyWebhook(payload, signedHeader("whsec_other", now.Unix(), payload)); err == nil {
			t.Error("expected signature mismatch error")
		}
	})

	t.Run("should reject a tampered payload", func(t *testing.T) {
		g := testGateway(secret, now)
		header := signedHeader(secret, now.Unix(), payload)
		tampered := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_999"}}}`)
		if _, err := g.VerifyWebhook(tampered, header); err == nil {
			t.Error("expected signature mismatch error")
		}
	})

	t.Run("should reject a stale timestamp as a replay", func(t *testing.T) {
		g := testGateway(secret, now)
		old := now.Add(-10 * time.Minute).Unix()
		if _, err := g.VerifyWebhook(payload, signedHeader(secret, old, payload)); err == nil {
			t.Error("expected tolerance error")
		}
	})

	t.Run("should reject a malformed header", func(t *testing.T) {
		g := testGateway(secret, now)
		for _, h := range []string{"", "t=abc,v1=def", "v1=deadbeef", "t=123"} {
			if _, err := g.VerifyWebhook(payload, h); err == nil {
				t.Errorf("header %q: expected error", h)
			}
		}
	})
}
