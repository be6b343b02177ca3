package billing

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

// ErrNotAttachable indicates a reservation or order that is missing or
// already linked to another invoice.
var ErrNotAttachable = errors.New("billing: line item missing or already attached to an invoice")

// Repository provides PostgreSQL backed persistence for billing.
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

// LineItemSums fetches the four aggregate sums for an invoice. SQL NULL
// (no matching rows) is preserved as nil so the reconciler can tell an
// empty side from a zero-valued one.
func (r *Repository) LineItemSums(ctx context.Context, invoiceID int64) (LineItemSums, error) {
	var sums LineItemSums
	var total, outstanding pgtype.Numeric

	err := r.q.QueryRow(ctx, `
		SELECT SUM(sub_total_usd),
		       SUM(sub_total_usd) FILTER (WHERE payment_status = 'UNPAID')
		FROM reservations
		WHERE invoice_id = $1`, invoiceID).Scan(&total, &outstanding)
	if err != nil {
		return LineItemSums{}, fmt.Errorf("sum reservations: %w", err)
	}
	sums.ReservationTotal = numericToDecimal(total)
	sums.ReservationOutstanding = numericToDecimal(outstanding)

	err = r.q.QueryRow(ctx, `
		SELECT SUM(sub_total_usd),
		       SUM(sub_total_usd) FILTER (WHERE status = 'UNPAID')
		FROM orders
		WHERE invoice_id = $1`, invoiceID).Scan(&total, &outstanding)
	if err != nil {
		return LineItemSums{}, fmt.Errorf("sum orders: %w", err)
	}
	sums.OrderTotal = numericToDecimal(total)
	sums.OrderOutstanding = numericToDecimal(outstanding)

	return sums, nil
}

// UpdateInvoiceTotals persists both aggregates in a single update.
func (r *Repository) UpdateInvoiceTotals(ctx context.Context, invoiceID int64, totals InvoiceTotals) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET total_usd = $2, balance_usd = $3, updated_at = NOW()
		WHERE id = $1`,
		invoiceID, totals.TotalUSD.String(), totals.BalanceUSD.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// CreateInvoice inserts a new invoice with a sequential zero-padded
// number and zeroed aggregates; the reconciler fills the aggregates in
// before the enclosing transaction commits.
func (r *Repository) CreateInvoice(ctx context.Context, guestName, guestEmail string) (*Invoice, error) {
	var inv Invoice
	err := r.q.QueryRow(ctx, `
		INSERT INTO invoices (number, guest_name, guest_email, total_usd, balance_usd, status, created_at, updated_at)
		VALUES ('', $1, $2, 0, 0, 'OPEN', NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		guestName, guestEmail).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	inv.Number = fmt.Sprintf("INV-%06d", inv.ID)
	if _, err := r.q.Exec(ctx, `UPDATE invoices SET number = $2 WHERE id = $1`, inv.ID, inv.Number); err != nil {
		return nil, err
	}

	inv.GuestName = guestName
	inv.GuestEmail = guestEmail
	inv.TotalUSD = decimal.Zero
	inv.BalanceUSD = decimal.Zero
	inv.Status = InvoiceStatusOpen
	return &inv, nil
}

// GetInvoice retrieves an invoice by ID.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	var total, balance pgtype.Numeric

	err := r.q.QueryRow(ctx, `
		SELECT id, number, guest_name, guest_email, total_usd, balance_usd, status, created_at, updated_at
		FROM invoices
		WHERE id = $1`, id).Scan(
		&inv.ID, &inv.Number, &inv.GuestName, &inv.GuestEmail,
		&total, &balance, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	inv.TotalUSD = orZero(numericToDecimal(total))
	inv.BalanceUSD = orZero(numericToDecimal(balance))
	return &inv, nil
}

// ListInvoices returns invoices with optional status filtering.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `
		SELECT id, number, guest_name, guest_email, total_usd, balance_usd, status, created_at, updated_at
		FROM invoices
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC"

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

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var total, balance pgtype.Numeric
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.GuestName, &inv.GuestEmail,
			&total, &balance, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		inv.TotalUSD = orZero(numericToDecimal(total))
		inv.BalanceUSD = orZero(numericToDecimal(balance))
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// UpdateInvoiceStatus transitions an invoice between lifecycle states,
// guarded by the allowed source states.
func (r *Repository) UpdateInvoiceStatus(ctx context.Context, id int64, from []InvoiceStatus, to InvoiceStatus) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(to), states)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

// AttachReservation links a free reservation to the invoice.
func (r *Repository) AttachReservation(ctx context.Context, reservationID, invoiceID int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE reservations
		SET invoice_id = $2, updated_at = NOW()
		WHERE id = $1 AND invoice_id IS NULL`,
		reservationID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %d: %w", reservationID, ErrNotAttachable)
	}
	return nil
}

// AttachOrder links a free order to the invoice.
func (r *Repository) AttachOrder(ctx context.Context, orderID, invoiceID int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
		SET invoice_id = $2, updated_at = NOW()
		WHERE id = $1 AND invoice_id IS NULL`,
		orderID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotAttachable)
	}
	return nil
}

// ListReconcilableInvoiceIDs returns ids of invoices that have at least
// one reservation or order, i.e. those the reconciler can process.
func (r *Repository) ListReconcilableInvoiceIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT i.id
		FROM invoices i
		WHERE EXISTS (SELECT 1 FROM reservations res WHERE res.invoice_id = i.id)
		   OR EXISTS (SELECT 1 FROM orders o WHERE o.invoice_id = i.id)
		ORDER BY i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// numericToDecimal converts a nullable pg numeric to a decimal, keeping
// NULL as nil. Money never passes through binary floating point.
func numericToDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}
