package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
	"paintball2go-backend/internal/infra/security"
)

var _ repository.WaiverRepository = (*waiverRepo)(nil)

// waiverRepo stores waivers with the signature blob encrypted at rest. A nil
// crypt stores it in the clear; production always passes the service.
type waiverRepo struct {
	pool  *pgxpool.Pool
	crypt *security.EncryptionService
}

func NewWaiverRepo(pool *pgxpool.Pool, crypt *security.EncryptionService) *waiverRepo {
	return &waiverRepo{pool: pool, crypt: crypt}
}

const waiverColumns = `id, user_id, participant, guardian, emergency, medical, activities, signature,
agreed_terms, agreed_photography, is_minor, version, status, expires_at, booking_ids, created_at, updated_at`

func (r *waiverRepo) Save(ctx context.Context, tx repository.Tx, w *model.Waiver) error {
	sig := w.Signature
	if r.crypt != nil && sig.Signature != "" {
		enc, err := r.crypt.Encrypt(sig.Signature)
		if err != nil {
			return domain.ErrOperationFailed
		}
		sig.Signature = enc
	}

	participant, err := json.Marshal(w.Participant)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	var guardian []byte
	if w.Guardian != nil {
		if guardian, err = json.Marshal(w.Guardian); err != nil {
			return domain.ErrInvalidArgument
		}
	}
	emergency, err := json.Marshal(w.Emergency)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	medical, err := json.Marshal(w.Medical)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	signature, err := json.Marshal(sig)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	activities := make([]string, 0, len(w.Activities))
	for _, a := range w.Activities {
		activities = append(activities, string(a))
	}

	const q = `
INSERT INTO waivers (id, user_id, participant, guardian, emergency, medical, activities, signature,
  agreed_terms, agreed_photography, is_minor, version, status, expires_at, booking_ids, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
  participant=$3, guardian=$4, emergency=$5, medical=$6, activities=$7, signature=$8,
  agreed_terms=$9, agreed_photography=$10, is_minor=$11, status=$13, expires_at=$14,
  booking_ids=$15, updated_at=$17;`

	_, err = execSQL(ctx, r.pool, tx, q,
		w.ID, w.UserID, participant, guardian, emergency, medical, activities, signature,
		w.AgreedToTerms, w.AgreedToPhotography, w.IsMinor, w.Version, string(w.Status), w.ExpiresAt, w.BookingIDs,
		w.CreatedAt, w.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *waiverRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Waiver, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+waiverColumns+` FROM waivers WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return r.scanWaiver(row)
}

func (r *waiverRepo) FindValid(ctx context.Context, tx repository.Tx, email, userID string, activity model.Activity, now time.Time) (*model.Waiver, error) {
	const q = `
SELECT ` + waiverColumns + `
  FROM waivers
 WHERE status='active'
   AND expires_at > $3
   AND $4 = ANY(activities)
   AND (participant->>'Email' = $1 OR ($2 <> '' AND user_id = $2))
 ORDER BY created_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, email, userID, now, string(activity))
	if err != nil {
		return nil, err
	}
	return r.scanWaiver(row)
}

func (r *waiverRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Waiver, error) {
	const q = `SELECT ` + waiverColumns + ` FROM waivers WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Waiver
	for rows.Next() {
		w, err := r.scanWaiver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *waiverRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `UPDATE waivers SET status='expired', updated_at=$1 WHERE status='active' AND expires_at <= $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(ct.RowsAffected()), nil
}

func (r *waiverRepo) scanWaiver(row rowScanner) (*model.Waiver, error) {
	w := &model.Waiver{}
	var status string
	var participant, guardian, emergency, medical, signature []byte
	var activities []string
	if err := row.Scan(
		&w.ID, &w.UserID, &participant, &guardian, &emergency, &medical, &activities, &signature,
		&w.AgreedToTerms, &w.AgreedToPhotography, &w.IsMinor, &w.Version, &status, &w.ExpiresAt, &w.BookingIDs,
		&w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	w.Status = model.WaiverStatus(status)
	if err := json.Unmarshal(participant, &w.Participant); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(guardian) > 0 {
		w.Guardian = &model.GuardianInfo{}
		if err := json.Unmarshal(guardian, w.Guardian); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if err := json.Unmarshal(emergency, &w.Emergency); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(medical, &w.Medical); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(signature, &w.Signature); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if r.crypt != nil && w.Signature.Signature != "" {
		pt, err := r.crypt.Decrypt(w.Signature.Signature)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		w.Signature.Signature = pt
	}
	for _, a := range activities {
		w.Activities = append(w.Activities, model.Activity(a))
	}
	return w, nil
}
