package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/adapter"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/infra/metrics"
	"paintball2go-backend/internal/infra/worker"
)

// CreateCampaignInput describes a draft bulk email.
type CreateCampaignInput struct {
	Name        string
	Subject     string
	TemplateID  string
	Filter      model.RecipientFilter
	ScheduledAt *time.Time
	CreatedBy   string
}

// CampaignUseCase creates campaigns, resolves recipients, and dispatches
// sends through a bounded worker pool.
type CampaignUseCase interface {
	Create(ctx context.Context, in CreateCampaignInput) (*model.EmailCampaign, error)
	Get(ctx context.Context, id string) (*model.EmailCampaign, error)
	List(ctx context.Context, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, error)
	// Dispatch runs the fan-out: draft or scheduled only, every resolved
	// recipient attempted exactly once, per-recipient failures tallied but
	// never aborting the rest.
	Dispatch(ctx context.Context, id string) (*model.EmailCampaign, error)
	RecordOpen(ctx context.Context, id string) error
	RecordClick(ctx context.Context, id string) error

	CreateTemplate(ctx context.Context, name, subject, content string) (*model.EmailTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error)
}

var _ CampaignUseCase = (*campaignUC)(nil)

type campaignUC struct {
	campaigns repository.CampaignRepository
	templates repository.TemplateRepository
	users     repository.UserRepository
	mailer    adapter.EmailSender
	pool      *worker.Pool
	log       *zerolog.Logger
}

func NewCampaignUseCase(
	campaigns repository.CampaignRepository,
	templates repository.TemplateRepository,
	users repository.UserRepository,
	mailer adapter.EmailSender,
	pool *worker.Pool,
	logger *zerolog.Logger,
) CampaignUseCase {
	return &campaignUC{
		campaigns: campaigns,
		templates: templates,
		users:     users,
		mailer:    mailer,
		pool:      pool,
		log:       logger,
	}
}

func (uc *campaignUC) Create(ctx context.Context, in CreateCampaignInput) (*model.EmailCampaign, error) {
	if _, err := uc.templates.FindByID(ctx, repository.NoTX, in.TemplateID); err != nil {
		return nil, err
	}
	c, err := model.NewEmailCampaign(uuid.NewString(), in.Name, in.Subject, in.TemplateID, in.CreatedBy, in.Filter)
	if err != nil {
		return nil, err
	}
	if in.ScheduledAt != nil {
		c.Status = model.CampaignStatusScheduled
		c.ScheduledAt = in.ScheduledAt
	}
	if err := uc.campaigns.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *campaignUC) Get(ctx context.Context, id string) (*model.EmailCampaign, error) {
	return uc.campaigns.FindByID(ctx, repository.NoTX, id)
}

func (uc *campaignUC) List(ctx context.Context, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, error) {
	return uc.campaigns.List(ctx, repository.NoTX, status, offset, limit)
}

// Dispatch resolves the audience, flips the campaign to sending, fans out one
// task per recipient over the shared pool, waits for every send to finish,
// and records the final tallies. The fan-out is collect-all: a failed send
// increments failedCount and the dispatch keeps going.
func (uc *campaignUC) Dispatch(ctx context.Context, id string) (*model.EmailCampaign, error) {
	c, err := uc.campaigns.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CampaignStatusDraft && c.Status != model.CampaignStatusScheduled {
		return nil, domain.ErrCampaignNotInDraft
	}
	tmpl, err := uc.templates.FindByID(ctx, repository.NoTX, c.TemplateID)
	if err != nil {
		return nil, err
	}

	recipients, err := uc.resolveRecipients(ctx, c.Filter)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		c.Status = model.CampaignStatusFailed
		c.UpdatedAt = time.Now()
		if err := uc.campaigns.Save(ctx, repository.NoTX, c); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoRecipients
	}

	c.Status = model.CampaignStatusSending
	c.RecipientCount = len(recipients)
	c.UpdatedAt = time.Now()
	if err := uc.campaigns.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	metrics.IncCampaignDispatched("started")

	var delivered, failed int64
	var wg sync.WaitGroup
	for _, u := range recipients {
		u := u
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			html := renderTemplate(tmpl.Content, map[string]string{
				"name":  u.Name,
				"email": u.Email,
			})
			if err := uc.mailer.Send(ctx, u.Email, c.Subject, html); err != nil {
				atomic.AddInt64(&failed, 1)
				metrics.IncCampaignSend("failed")
				uc.log.Warn().Err(err).Str("campaign_id", c.ID).Str("recipient", u.Email).Msg("campaign send failed")
				return nil
			}
			atomic.AddInt64(&delivered, 1)
			metrics.IncCampaignSend("delivered")
			return nil
		}
		if err := uc.pool.SubmitWait(ctx, task); err != nil {
			// Enqueue failed, so the task will never run; settle it here.
			atomic.AddInt64(&failed, 1)
			metrics.IncCampaignSend("failed")
			wg.Done()
		}
	}
	wg.Wait()

	now := time.Now()
	c.DeliveredCount = int(atomic.LoadInt64(&delivered))
	c.FailedCount = int(atomic.LoadInt64(&failed))
	c.SentAt = &now
	c.UpdatedAt = now
	// A completed fan-out is sent, whatever the per-recipient tallies say;
	// failed is reserved for dispatches that never ran.
	c.Status = model.CampaignStatusSent
	c.RecomputeRates()
	if err := uc.campaigns.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	metrics.IncCampaignDispatched(string(c.Status))
	uc.log.Info().
		Str("campaign_id", c.ID).
		Int("recipients", c.RecipientCount).
		Int("delivered", c.DeliveredCount).
		Int("failed", c.FailedCount).
		Msg("campaign dispatch finished")
	return c, nil
}

func (uc *campaignUC) RecordOpen(ctx context.Context, id string) error {
	c, err := uc.campaigns.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	c.RecordOpen()
	c.UpdatedAt = time.Now()
	return uc.campaigns.Save(ctx, repository.NoTX, c)
}

func (uc *campaignUC) RecordClick(ctx context.Context, id string) error {
	c, err := uc.campaigns.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	c.RecordClick()
	c.UpdatedAt = time.Now()
	return uc.campaigns.Save(ctx, repository.NoTX, c)
}

func (uc *campaignUC) CreateTemplate(ctx context.Context, name, subject, content string) (*model.EmailTemplate, error) {
	if name == "" || content == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	t := &model.EmailTemplate{
		ID:        uuid.NewString(),
		Name:      name,
		Subject:   subject,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.templates.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *campaignUC) GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error) {
	return uc.templates.FindByID(ctx, repository.NoTX, id)
}

// resolveRecipients maps the filter to the audience. Every path is restricted
// to active users; "all" and "tag" additionally require newsletter opt-in,
// while "selected" is an explicit staff choice and skips the opt-in check.
func (uc *campaignUC) resolveRecipients(ctx context.Context, f model.RecipientFilter) ([]*model.User, error) {
	switch f.Type {
	case model.RecipientsAll:
		return uc.users.ListOptedIn(ctx, repository.NoTX)
	case model.RecipientsSelected:
		return uc.users.ListByIDs(ctx, repository.NoTX, f.SelectedUsers)
	case model.RecipientsTag:
		return uc.users.ListByTags(ctx, repository.NoTX, f.Tags)
	default:
		return nil, domain.ErrInvalidArgument
	}
}

// renderTemplate substitutes {{key}} placeholders. Unknown placeholders are
// left untouched.
func renderTemplate(content string, vars map[string]string) string {
	out := content
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}
