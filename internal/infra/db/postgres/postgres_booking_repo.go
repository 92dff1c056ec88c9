package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"paintball2go-backend/internal/domain"
	"paintball2go-backend/internal/domain/model"
	"paintball2go-backend/internal/domain/ports/repository"
)

var _ repository.BookingRepository = (*bookingRepo)(nil)

type bookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *bookingRepo {
	return &bookingRepo{pool: pool}
}

const bookingColumns = `id, reference, user_id, activity, event_date, start_time, end_time, participants,
customer, pricing, status, payment_state, waiver_on_file, notes, timeline, cancellation, invoice_id,
created_at, updated_at`

func (r *bookingRepo) Save(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	customer, err := json.Marshal(b.Customer)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	pricing, err := json.Marshal(b.Pricing)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	timeline, err := json.Marshal(b.Timeline)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	var cancellation []byte
	if b.Cancellation != nil {
		if cancellation, err = json.Marshal(b.Cancellation); err != nil {
			return domain.ErrInvalidArgument
		}
	}

	const q = `
INSERT INTO bookings (id, reference, user_id, activity, event_date, start_time, end_time, participants,
  customer, pricing, status, payment_state, waiver_on_file, notes, timeline, cancellation, invoice_id,
  created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (id) DO UPDATE SET
  user_id=$3, event_date=$5, start_time=$6, end_time=$7, participants=$8,
  customer=$9, pricing=$10, status=$11, payment_state=$12, waiver_on_file=$13,
  notes=$14, timeline=$15, cancellation=$16, invoice_id=$17, updated_at=$19;`

	_, err = execSQL(ctx, r.pool, tx, q,
		b.ID, b.Reference, b.UserID, string(b.Activity), b.EventDate, b.StartTime, b.EndTime, b.Participants,
		customer, pricing, string(b.Status), string(b.PaymentState), b.WaiverOnFile, b.Notes, timeline, cancellation, b.InvoiceID,
		b.CreatedAt, b.UpdatedAt,
	)
	return mapSaveErr(err, domain.ErrAlreadyExists)
}

func (r *bookingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Booking, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanBooking(row)
}

// filterClauses translates the filter into WHERE fragments with positional
// args, shared by List and Count so the two can never disagree.
func filterClauses(f repository.BookingListFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if f.Activity != "" {
		add("activity=$%d", string(f.Activity))
	}
	if f.UserID != "" {
		add("user_id=$%d", f.UserID)
	}
	if f.DateFrom != nil {
		add("event_date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("event_date <= $%d", *f.DateTo)
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *bookingRepo) List(ctx context.Context, tx repository.Tx, f repository.BookingListFilter) ([]*model.Booking, error) {
	clause, args := filterClauses(f)
	q := `SELECT ` + bookingColumns + ` FROM bookings` + clause + ` ORDER BY event_date DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := queryRows(ctx, r.pool, tx, q+";", args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *bookingRepo) Count(ctx context.Context, tx repository.Tx, f repository.BookingListFilter) (int, error) {
	clause, args := filterClauses(f)
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM bookings`+clause+`;`, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	var activity, status, payState string
	var customer, pricing, timeline, cancellation []byte
	if err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &activity, &b.EventDate, &b.StartTime, &b.EndTime, &b.Participants,
		&customer, &pricing, &status, &payState, &b.WaiverOnFile, &b.Notes, &timeline, &cancellation, &b.InvoiceID,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	b.Activity = model.Activity(activity)
	b.Status = model.BookingStatus(status)
	b.PaymentState = model.PaymentState(payState)
	if err := json.Unmarshal(customer, &b.Customer); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(pricing, &b.Pricing); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &b.Timeline); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(cancellation) > 0 {
		b.Cancellation = &model.Cancellation{}
		if err := json.Unmarshal(cancellation, b.Cancellation); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return b, nil
}
