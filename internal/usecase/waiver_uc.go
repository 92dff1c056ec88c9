package usecase

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/adapter"
	"paintball2go-backend/internal/domain/ports/repository"
)

// SubmitWaiverInput is the signed waiver form as received.
type SubmitWaiverInput struct {
	UserID              string
	Participant         model.ParticipantInfo
	Guardian            *model.GuardianInfo
	Emergency           model.EmergencyContact
	Medical             model.MedicalInfo
	Activities          []model.Activity
	Signature           model.SignatureRecord
	AgreedToTerms       bool
	AgreedToPhotography bool
	ExpiresAt           *time.Time
	BookingID           string
}

// WaiverUseCase maintains waiver validity: derived fields on every save, the
// one-valid-waiver-per-participant-per-activity rule, and the soft-gate
// lookup used by booking creation.
type WaiverUseCase interface {
	Submit(ctx context.Context, in SubmitWaiverInput) (*model.Waiver, error)
	Get(ctx context.Context, id string) (*model.Waiver, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Waiver, error)
	// HasValidWaiver answers the soft gate: does the participant hold an
	// active, unexpired waiver covering the activity?
	HasValidWaiver(ctx context.Context, email, userID string, activity model.Activity) (bool, error)
	// ExtendCoverage adds activities to a still-valid waiver without
	// re-signing.
	ExtendCoverage(ctx context.Context, id string, add []model.Activity) (*model.Waiver, error)
	Revoke(ctx context.Context, id string) (*model.Waiver, error)
	AttachBooking(ctx context.Context, id, bookingID string) error
	// ExpireDue sweeps active waivers past their expiry; scheduler-driven.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

var _ WaiverUseCase = (*waiverUC)(nil)

type waiverUC struct {
	waivers repository.WaiverRepository
	tx      repository.TransactionManager
	mailer  adapter.EmailSender
	log     *zerolog.Logger
}

func NewWaiverUseCase(
	waivers repository.WaiverRepository,
	tx repository.TransactionManager,
	mailer adapter.EmailSender,
	logger *zerolog.Logger,
) WaiverUseCase {
	return &waiverUC{waivers: waivers, tx: tx, mailer: mailer, log: logger}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// Submit validates the form, derives minor status and expiry, and enforces
// one valid waiver per participant email per activity. The uniqueness rule
// is query-before-insert under a per-email advisory lock: an existing valid
// waiver already covering every requested activity is returned as-is, and one
// covering a subset is extended instead of duplicated.
func (uc *waiverUC) Submit(ctx context.Context, in SubmitWaiverInput) (*model.Waiver, error) {
	now := time.Now()
	w := &model.Waiver{
		ID:                  uuid.NewString(),
		Participant:         in.Participant,
		Guardian:            in.Guardian,
		Emergency:           in.Emergency,
		Medical:             in.Medical,
		Activities:          in.Activities,
		Signature:           in.Signature,
		AgreedToTerms:       in.AgreedToTerms,
		AgreedToPhotography: in.AgreedToPhotography,
		Version:             model.WaiverVersion,
		Status:              model.WaiverStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if in.UserID != "" {
		w.UserID = &in.UserID
	}
	if in.ExpiresAt != nil {
		w.ExpiresAt = *in.ExpiresAt
	}
	if in.Signature.SignedAt.IsZero() {
		w.Signature.SignedAt = now
	}
	if err := w.Validate(now); err != nil {
		return nil, err
	}
	w.RecomputeDerived(now)

	var out *model.Waiver
	err := uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockKey(ctx, tx, hashToInt64(in.Participant.Email)); err != nil {
			return err
		}

		// Fold into an existing valid waiver rather than inserting a twin.
		for _, a := range in.Activities {
			existing, err := uc.waivers.FindValid(ctx, tx, in.Participant.Email, in.UserID, a, now)
			if err != nil || existing == nil {
				continue
			}
			if err := existing.ExtendActivities(now, in.Activities...); err != nil {
				return err
			}
			if err := uc.waivers.Save(ctx, tx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		}

		if err := uc.waivers.Save(ctx, tx, w); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.BookingID != "" {
		if err := uc.AttachBooking(ctx, out.ID, in.BookingID); err != nil {
			uc.log.Warn().Err(err).Str("waiver_id", out.ID).Msg("failed to attach waiver to booking")
		}
	}
	uc.confirm(ctx, out)
	return out, nil
}

func (uc *waiverUC) Get(ctx context.Context, id string) (*model.Waiver, error) {
	return uc.waivers.FindByID(ctx, repository.NoTX, id)
}

func (uc *waiverUC) ListByUser(ctx context.Context, userID string) ([]*model.Waiver, error) {
	return uc.waivers.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *waiverUC) HasValidWaiver(ctx context.Context, email, userID string, activity model.Activity) (bool, error) {
	w, err := uc.waivers.FindValid(ctx, repository.NoTX, email, userID, activity, time.Now())
	if err == domain.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return w != nil, nil
}

func (uc *waiverUC) ExtendCoverage(ctx context.Context, id string, add []model.Activity) (*model.Waiver, error) {
	w, err := uc.waivers.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := w.ExtendActivities(now, add...); err != nil {
		return nil, err
	}
	w.RecomputeDerived(now)
	if err := uc.waivers.Save(ctx, repository.NoTX, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (uc *waiverUC) Revoke(ctx context.Context, id string) (*model.Waiver, error) {
	w, err := uc.waivers.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	w.Status = model.WaiverStatusRevoked
	w.UpdatedAt = time.Now()
	if err := uc.waivers.Save(ctx, repository.NoTX, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (uc *waiverUC) AttachBooking(ctx context.Context, id, bookingID string) error {
	w, err := uc.waivers.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	for _, b := range w.BookingIDs {
		if b == bookingID {
			return nil
		}
	}
	w.BookingIDs = append(w.BookingIDs, bookingID)
	w.UpdatedAt = time.Now()
	return uc.waivers.Save(ctx, repository.NoTX, w)
}

func (uc *waiverUC) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	return uc.waivers.ExpireDue(ctx, repository.NoTX, now)
}

func (uc *waiverUC) confirm(ctx context.Context, w *model.Waiver) {
	html := "<p>Hi " + w.Participant.Name + ",</p><p>Your liability waiver is on file. It expires " + w.ExpiresAt.Format("Jan 2, 2006") + ".</p>"
	if err := uc.mailer.Send(ctx, w.Participant.Email, "Your Paintball 2 Go waiver", html); err != nil {
		uc.log.Warn().Err(err).Str("waiver_id", w.ID).Msg("failed to send waiver confirmation")
	}
}

// lockKey takes a pg advisory xact lock when running on a real transaction;
// in-memory test transactions are a no-op.
func lockKey(ctx context.Context, tx repository.Tx, key int64) error {
	if ptx, ok := tx.(pgx.Tx); ok {
		_, err := ptx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key)
		return err
	}
	return nil
}
