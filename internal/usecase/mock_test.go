//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/adapter"
	"paintball2go-backend/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction unless a
// custom WithTxFunc is assigned.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock EmailSender ----

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

type MockEmailSender struct {
	mu   sync.Mutex
	Sent []sentEmail

	SendFunc func(ctx context.Context, to, subject, html string) error
}

var _ adapter.EmailSender = (*MockEmailSender)(nil)

func (m *MockEmailSender) Send(ctx context.Context, to, subject, html string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, subject, html); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentEmail{To: to, Subject: subject, HTML: html})
	return nil
}

func (m *MockEmailSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	CreateIntentFunc  func(ctx context.Context, amountCents int64, currency string, meta map[string]string) (*adapter.Intent, error)
	VerifyWebhookFunc func(payload []byte, sigHeader string) (*adapter.WebhookEvent, error)
	Cancelled         []string
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, meta map[string]string) (*adapter.Intent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, amountCents, currency, meta)
	}
	return &adapter.Intent{ID: "pi_mock_1", ClientSecret: "pi_mock_1_secret"}, nil
}

func (m *MockPaymentGateway) ConfirmIntent(context.Context, string) error { return nil }

func (m *MockPaymentGateway) CancelIntent(_ context.Context, id string) error {
	m.Cancelled = append(m.Cancelled, id)
	return nil
}

func (m *MockPaymentGateway) VerifyWebhook(payload []byte, sigHeader string) (*adapter.WebhookEvent, error) {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, sigHeader)
	}
	return &adapter.WebhookEvent{Type: "payment_intent.succeeded"}, nil
}

// ---- Mock BookingRepository ----

type MockBookingRepo struct {
	mu    sync.Mutex
	store map[string]*model.Booking

	SaveFunc     func(ctx context.Context, tx repository.Tx, b *model.Booking) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Booking, error)
}

func NewMockBookingRepo() *MockBookingRepo {
	return &MockBookingRepo{store: map[string]*model.Booking{}}
}

var _ repository.BookingRepository = (*MockBookingRepo)(nil)

func (m *MockBookingRepo) Save(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.store[b.ID] = &cp
	return nil
}

func (m *MockBookingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Booking, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBookingRepo) List(ctx context.Context, tx repository.Tx, f repository.BookingListFilter) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.store {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Activity != "" && b.Activity != f.Activity {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockBookingRepo) Count(ctx context.Context, tx repository.Tx, f repository.BookingListFilter) (int, error) {
	items, _ := m.List(ctx, tx, f)
	return len(items), nil
}

// ---- Mock WaiverRepository ----

type MockWaiverRepo struct {
	mu    sync.Mutex
	store map[string]*model.Waiver

	SaveFunc      func(ctx context.Context, tx repository.Tx, w *model.Waiver) error
	FindValidFunc func(ctx context.Context, tx repository.Tx, email, userID string, activity model.Activity, now time.Time) (*model.Waiver, error)
}

func NewMockWaiverRepo() *MockWaiverRepo {
	return &MockWaiverRepo{store: map[string]*model.Waiver{}}
}

var _ repository.WaiverRepository = (*MockWaiverRepo)(nil)

func (m *MockWaiverRepo) Save(ctx context.Context, tx repository.Tx, w *model.Waiver) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.store[w.ID] = &cp
	return nil
}

func (m *MockWaiverRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Waiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MockWaiverRepo) FindValid(ctx context.Context, tx repository.Tx, email, userID string, activity model.Activity, now time.Time) (*model.Waiver, error) {
	if m.FindValidFunc != nil {
		return m.FindValidFunc(ctx, tx, email, userID, activity, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.store {
		match := w.Participant.Email == email || (userID != "" && w.UserID != nil && *w.UserID == userID)
		if match && w.IsValidAt(now) && w.Covers(activity) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockWaiverRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Waiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Waiver
	for _, w := range m.store {
		if w.UserID != nil && *w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockWaiverRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, w := range m.store {
		if w.Status == model.WaiverStatusActive && !w.ExpiresAt.After(now) {
			w.Status = model.WaiverStatusExpired
			n++
		}
	}
	return n, nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: map[string]*model.User{}}
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) ListOptedIn(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.store {
		if u.IsActive && u.Newsletter {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockUserRepo) ListByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, id := range ids {
		if u, ok := m.store[id]; ok && u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockUserRepo) ListByTags(ctx context.Context, tx repository.Tx, tags []string) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.store {
		if !u.IsActive || !u.Newsletter {
			continue
		}
		for _, want := range tags {
			for _, have := range u.Tags {
				if have == want {
					cp := *u
					out = append(out, &cp)
				}
			}
		}
	}
	return out, nil
}

// ---- Mock InvoiceRepository ----

type MockInvoiceRepo struct {
	mu    sync.Mutex
	store map[string]*model.Invoice

	SaveFunc func(ctx context.Context, tx repository.Tx, inv *model.Invoice) error
}

func NewMockInvoiceRepo() *MockInvoiceRepo {
	return &MockInvoiceRepo{store: map[string]*model.Invoice{}}
}

var _ repository.InvoiceRepository = (*MockInvoiceRepo)(nil)

func (m *MockInvoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.store[inv.ID] = &cp
	return nil
}

func (m *MockInvoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MockInvoiceRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.store {
		if inv.Number == number {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockInvoiceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range m.store {
		if inv.UserID == userID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockInvoiceRepo) ListOverdue(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range m.store {
		if inv.Status == model.InvoiceStatusSent && inv.DueDate != nil && inv.DueDate.Before(cutoff) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock InvoiceSequenceRepository ----

type MockInvoiceSequenceRepo struct {
	mu   sync.Mutex
	seqs map[string]int64

	NextSequenceFunc func(ctx context.Context, tx repository.Tx, year int, month time.Month) (int64, error)
}

func NewMockInvoiceSequenceRepo() *MockInvoiceSequenceRepo {
	return &MockInvoiceSequenceRepo{seqs: map[string]int64{}}
}

var _ repository.InvoiceSequenceRepository = (*MockInvoiceSequenceRepo)(nil)

func (m *MockInvoiceSequenceRepo) NextSequence(ctx context.Context, tx repository.Tx, year int, month time.Month) (int64, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx, tx, year, month)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("200601")
	m.seqs[key]++
	return m.seqs[key], nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription

	SaveFunc                 func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindActiveLikeByUserFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.Subscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindActiveLikeByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindActiveLikeByUserFunc != nil {
		return m.FindActiveLikeByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.UserID == userID && s.Status.ActiveLike() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.PlanTier]int{}
	for _, s := range m.store {
		if s.Status.ActiveLike() {
			counts[s.Tier]++
		}
	}
	return counts, nil
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: map[string]*model.Plan{}}
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) FindByTierAndCycle(ctx context.Context, tx repository.Tx, tier model.PlanTier, cycle model.BillingCycle) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.Tier == tier && p.BillingCycle == cycle {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// ---- Mock CampaignRepository ----

type MockCampaignRepo struct {
	mu    sync.Mutex
	store map[string]*model.EmailCampaign

	SaveFunc func(ctx context.Context, tx repository.Tx, c *model.EmailCampaign) error
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{store: map[string]*model.EmailCampaign{}}
}

var _ repository.CampaignRepository = (*MockCampaignRepo)(nil)

func (m *MockCampaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.EmailCampaign) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.EmailCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) List(ctx context.Context, tx repository.Tx, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.EmailCampaign
	for _, c := range m.store {
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock TemplateRepository ----

type MockTemplateRepo struct {
	mu    sync.Mutex
	store map[string]*model.EmailTemplate
}

func NewMockTemplateRepo() *MockTemplateRepo {
	return &MockTemplateRepo{store: map[string]*model.EmailTemplate{}}
}

var _ repository.TemplateRepository = (*MockTemplateRepo)(nil)

func (m *MockTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}
