package model

import (
	"time"

	"paintball2go-backend/internal/domain"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
)

type RecipientFilterType string

const (
	RecipientsAll      RecipientFilterType = "all"
	RecipientsSelected RecipientFilterType = "selected"
	RecipientsTag      RecipientFilterType = "tag"
)

// RecipientFilter selects the audience for a campaign dispatch.
type RecipientFilter struct {
	Type          RecipientFilterType
	SelectedUsers []string
	Tags          []string
}

// EmailCampaign is a one-shot bulk send over a resolved recipient set.
// Counters only ever increase; the two rates are recomputed from counters on
// every save.
type EmailCampaign struct {
	ID             string
	Name           string
	Subject        string
	TemplateID     string
	Filter         RecipientFilter
	Status         CampaignStatus
	ScheduledAt    *time.Time
	SentAt         *time.Time
	RecipientCount int
	DeliveredCount int
	OpenedCount    int
	ClickedCount   int
	FailedCount    int
	OpenRate       float64
	ClickRate      float64
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEmailCampaign validates and constructs a draft campaign.
func NewEmailCampaign(id, name, subject, templateID, createdBy string, filter RecipientFilter) (*EmailCampaign, error) {
	if id == "" || name == "" || subject == "" || templateID == "" || createdBy == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch filter.Type {
	case RecipientsAll:
	case RecipientsSelected:
		if len(filter.SelectedUsers) == 0 {
			return nil, domain.ErrInvalidArgument
		}
	case RecipientsTag:
		if len(filter.Tags) == 0 {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &EmailCampaign{
		ID:         id,
		Name:       name,
		Subject:    subject,
		TemplateID: templateID,
		Filter:     filter,
		Status:     CampaignStatusDraft,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecomputeRates refreshes openRate/clickRate from the counters. Rates stay 0
// until something is delivered, avoiding a division by zero.
func (c *EmailCampaign) RecomputeRates() {
	if c.DeliveredCount > 0 {
		c.OpenRate = float64(c.OpenedCount) / float64(c.DeliveredCount) * 100
		c.ClickRate = float64(c.ClickedCount) / float64(c.DeliveredCount) * 100
	} else {
		c.OpenRate = 0
		c.ClickRate = 0
	}
}

// RecordOpen and RecordClick are driven by delivery-provider webhooks.
func (c *EmailCampaign) RecordOpen() {
	c.OpenedCount++
	c.RecomputeRates()
}

func (c *EmailCampaign) RecordClick() {
	c.ClickedCount++
	c.RecomputeRates()
}

// EmailTemplate is a stored HTML body with {{variable}} placeholders.
type EmailTemplate struct {
	ID        string
	Name      string
	Subject   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
