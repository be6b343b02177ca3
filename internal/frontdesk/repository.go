package frontdesk

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/harborview-pms/harborview/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for reservations.
type Repository struct {
	q    db.Querier
	pool *pgxpool.Pool
}

// NewRepository constructs a repository on the connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool, pool: pool}
}

// Bind returns a repository running its queries on q, typically a
// transaction obtained from WithTx.
func (r *Repository) Bind(q db.Querier) *Repository {
	return &Repository{q: q, pool: r.pool}
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

// Create inserts a new reservation.
func (r *Repository) Create(ctx context.Context, res Reservation) (*Reservation, error) {
	err := r.q.QueryRow(ctx, `
		INSERT INTO reservations
			(confirmation_code, room_id, guest_name, guest_email, check_in, check_out,
			 nights, sub_total_usd, payment_status, status, invoice_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		res.ConfirmationCode, res.RoomID, res.GuestName, res.GuestEmail,
		res.CheckIn, res.CheckOut, res.Nights, res.SubTotalUSD.String(),
		string(res.PaymentStatus), string(res.Status), res.InvoiceID).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Get retrieves a reservation by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Reservation, error) {
	var res Reservation
	var subTotal pgtype.Numeric

	err := r.q.QueryRow(ctx, `
		SELECT id, confirmation_code, room_id, guest_name, guest_email, check_in, check_out,
		       nights, sub_total_usd, payment_status, status, invoice_id, created_at, updated_at
		FROM reservations
		WHERE id = $1`, id).Scan(
		&res.ID, &res.ConfirmationCode, &res.RoomID, &res.GuestName, &res.GuestEmail,
		&res.CheckIn, &res.CheckOut, &res.Nights, &subTotal,
		&res.PaymentStatus, &res.Status, &res.InvoiceID, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.SubTotalUSD = decimal.NewFromBigInt(subTotal.Int, subTotal.Exp)
	return &res, nil
}

// List returns reservations matching the filter.
func (r *Repository) List(ctx context.Context, req ListReservationsRequest) ([]Reservation, error) {
	query := `
		SELECT id, confirmation_code, room_id, guest_name, guest_email, check_in, check_out,
		       nights, sub_total_usd, payment_status, status, invoice_id, created_at, updated_at
		FROM reservations
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.RoomID > 0 {
		query += fmt.Sprintf(" AND room_id = $%d", argNum)
		args = append(args, req.RoomID)
		argNum++
	}
	if req.InvoiceID > 0 {
		query += fmt.Sprintf(" AND invoice_id = $%d", argNum)
		args = append(args, req.InvoiceID)
		argNum++
	}

	query += " ORDER BY check_in DESC, id DESC"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		var subTotal pgtype.Numeric
		if err := rows.Scan(
			&res.ID, &res.ConfirmationCode, &res.RoomID, &res.GuestName, &res.GuestEmail,
			&res.CheckIn, &res.CheckOut, &res.Nights, &subTotal,
			&res.PaymentStatus, &res.Status, &res.InvoiceID, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		res.SubTotalUSD = decimal.NewFromBigInt(subTotal.Int, subTotal.Exp)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPaymentStatus updates the settlement state of a reservation.
func (r *Repository) SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE reservations SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// SetStatus transitions the lifecycle state, guarded by the allowed
// source states.
func (r *Repository) SetStatus(ctx context.Context, id int64, from []ReservationStatus, to ReservationStatus) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE reservations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(to), states)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// SetInvoiceID links an unattached reservation to an invoice.
func (r *Repository) SetInvoiceID(ctx context.Context, id, invoiceID int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE reservations
		SET invoice_id = $2, updated_at = NOW()
		WHERE id = $1 AND invoice_id IS NULL`,
		id, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAttached
	}
	return nil
}
