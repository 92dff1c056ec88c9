//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/infra/worker"
	"paintball2go-backend/internal/usecase"
)

type campaignFixture struct {
	uc        usecase.CampaignUseCase
	campaigns *MockCampaignRepo
	templates *MockTemplateRepo
	users     *MockUserRepo
	mailer    *MockEmailSender
}

func newCampaignFixture(t *testing.T) *campaignFixture {
	t.Helper()
	f := &campaignFixture{
		campaigns: NewMockCampaignRepo(),
		templates: NewMockTemplateRepo(),
		users:     NewMockUserRepo(),
		mailer:    &MockEmailSender{},
	}
	pool := worker.NewPool(4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		pool.Stop()
		cancel()
	})
	f.uc = usecase.NewCampaignUseCase(f.campaigns, f.templates, f.users, f.mailer, pool, newTestLogger())

	_ = f.templates.Save(context.Background(), repository.NoTX, &model.EmailTemplate{
		ID:      "t-1",
		Name:    "Promo",
		Subject: "20% off",
		Content: "<p>Hi {{name}}, book your next game!</p>",
	})
	return f
}

func (f *campaignFixture) seedUsers(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		u, err := model.NewUser(fmt.Sprintf("u-%d", i), fmt.Sprintf("Player %d", i), fmt.Sprintf("player%d@example.com", i))
		if err != nil {
			t.Fatalf("user: %v", err)
		}
		_ = f.users.Save(context.Background(), repository.NoTX, u)
	}
}

func campaignInput() usecase.CreateCampaignInput {
	return usecase.CreateCampaignInput{
		Name:       "Summer promo",
		Subject:    "20% off your next game",
		TemplateID: "t-1",
		Filter:     model.RecipientFilter{Type: model.RecipientsAll},
		CreatedBy:  "staff-1",
	}
}

func TestCampaignUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a draft referencing a stored template", func(t *testing.T) {
		f := newCampaignFixture(t)
		c, err := f.uc.Create(ctx, campaignInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Status != model.CampaignStatusDraft {
			t.Errorf("status = %s, want draft", c.Status)
		}
	})

	t.Run("should schedule when a send time is given", func(t *testing.T) {
		f := newCampaignFixture(t)
		in := campaignInput()
		at := time.Now().Add(48 * time.Hour)
		in.ScheduledAt = &at

		c, err := f.uc.Create(ctx, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Status != model.CampaignStatusScheduled {
			t.Errorf("status = %s, want scheduled", c.Status)
		}
	})

	t.Run("should reject a missing template", func(t *testing.T) {
		f := newCampaignFixture(t)
		in := campaignInput()
		in.TemplateID = "t-missing"
		if _, err := f.uc.Create(ctx, in); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCampaignUseCase_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should fan out to every opted-in recipient and render variables", func(t *testing.T) {
		// Arrange
		f := newCampaignFixture(t)
		f.seedUsers(t, 5)
		c, _ := f.uc.Create(ctx, campaignInput())

		// Act
		got, err := f.uc.Dispatch(ctx, c.ID)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.CampaignStatusSent {
			t.Errorf("status = %s, want sent", got.Status)
		}
		if got.RecipientCount != 5 || got.DeliveredCount != 5 || got.FailedCount != 0 {
			t.Errorf("counts = %d/%d/%d, want 5/5/0", got.RecipientCount, got.DeliveredCount, got.FailedCount)
		}
		if got.SentAt == nil {
			t.Error("sent_at not stamped")
		}
		if f.mailer.SentCount() != 5 {
			t.Errorf("emails = %d, want 5", f.mailer.SentCount())
		}
		for _, m := range f.mailer.Sent {
			if strings.Contains(m.HTML, "{{name}}") {
				t.Errorf("placeholder left unrendered in %q", m.HTML)
			}
		}
	})

	t.Run("should tally failures without aborting the rest", func(t *testing.T) {
		// Arrange
		f := newCampaignFixture(t)
		f.seedUsers(t, 5)
		f.mailer.SendFunc = func(ctx context.Context, to, subject, html string) error {
			if to == "player1@example.com" || to == "player3@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		}
		c, _ := f.uc.Create(ctx, campaignInput())

		// Act
		got, err := f.uc.Dispatch(ctx, c.ID)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != model.CampaignStatusSent {
			t.Errorf("status = %s, want sent with partial failures", got.Status)
		}
		if got.DeliveredCount != 3 || got.FailedCount != 2 {
			t.Errorf("delivered/failed = %d/%d, want 3/2", got.DeliveredCount, got.FailedCount)
		}
	})

	t.Run("should still finish as sent when every send fails", func(t *testing.T) {
		f := newCampaignFixture(t)
		f.seedUsers(t, 3)
		f.mailer.SendFunc = func(ctx context.Context, to, subject, html string) error {
			return errors.New("provider down")
		}
		c, _ := f.uc.Create(ctx, campaignInput())

		got, err := f.uc.Dispatch(ctx, c.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The fan-out ran to completion, so the campaign is sent with the
		// failures tallied; failed is reserved for dispatches that never ran.
		if got.Status != model.CampaignStatusSent {
			t.Errorf("status = %s, want sent", got.Status)
		}
		if got.DeliveredCount != 0 || got.FailedCount != 3 {
			t.Errorf("delivered/failed = %d/%d, want 0/3", got.DeliveredCount, got.FailedCount)
		}
		if got.SentAt == nil {
			t.Error("sent_at not stamped")
		}
	})

	t.Run("should fail fast with zero recipients", func(t *testing.T) {
		f := newCampaignFixture(t)
		c, _ := f.uc.Create(ctx, campaignInput())

		_, err := f.uc.Dispatch(ctx, c.ID)
		if !errors.Is(err, domain.ErrNoRecipients) {
			t.Errorf("err = %v, want ErrNoRecipients", err)
		}
		stored, _ := f.uc.Get(ctx, c.ID)
		if stored.Status != model.CampaignStatusFailed {
			t.Errorf("status = %s, want failed", stored.Status)
		}
		if f.mailer.SentCount() != 0 {
			t.Errorf("emails = %d, want 0", f.mailer.SentCount())
		}
	})

	t.Run("should refuse re-dispatching a sent campaign", func(t *testing.T) {
		f := newCampaignFixture(t)
		f.seedUsers(t, 2)
		c, _ := f.uc.Create(ctx, campaignInput())
		if _, err := f.uc.Dispatch(ctx, c.ID); err != nil {
			t.Fatalf("first dispatch: %v", err)
		}

		_, err := f.uc.Dispatch(ctx, c.ID)
		if !errors.Is(err, domain.ErrCampaignNotInDraft) {
			t.Errorf("err = %v, want ErrCampaignNotInDraft", err)
		}
	})

	t.Run("should skip users who opted out of the newsletter", func(t *testing.T) {
		f := newCampaignFixture(t)
		f.seedUsers(t, 3)
		u, _ := f.users.FindByID(ctx, repository.NoTX, "u-0")
		u.Newsletter = false
		_ = f.users.Save(ctx, repository.NoTX, u)
		c, _ := f.uc.Create(ctx, campaignInput())

		got, err := f.uc.Dispatch(ctx, c.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.RecipientCount != 2 {
			t.Errorf("recipients = %d, want 2", got.RecipientCount)
		}
	})
}

func TestCampaignUseCase_Tracking(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t)
	f.seedUsers(t, 4)
	c, _ := f.uc.Create(ctx, campaignInput())
	if _, err := f.uc.Dispatch(ctx, c.ID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if err := f.uc.RecordOpen(ctx, c.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.uc.RecordOpen(ctx, c.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.uc.RecordClick(ctx, c.ID); err != nil {
		t.Fatalf("click: %v", err)
	}

	got, _ := f.uc.Get(ctx, c.ID)
	if got.OpenedCount != 2 || got.ClickedCount != 1 {
		t.Errorf("opens/clicks = %d/%d, want 2/1", got.OpenedCount, got.ClickedCount)
	}
	if got.OpenRate != 50 {
		t.Errorf("open rate = %.1f, want 50", got.OpenRate)
	}
	if got.ClickRate != 25 {
		t.Errorf("click rate = %.1f, want 25", got.ClickRate)
	}
}
