package pos

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

// Repository provides PostgreSQL backed persistence for orders.
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

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, o Order) (*Order, error) {
	err := r.q.QueryRow(ctx, `
		INSERT INTO orders
			(reference, outlet, description, sub_total_usd, status, invoice_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		o.Reference, string(o.Outlet), o.Description, o.SubTotalUSD.String(),
		string(o.Status), o.InvoiceID).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	var subTotal pgtype.Numeric

	err := r.q.QueryRow(ctx, `
		SELECT id, reference, outlet, description, sub_total_usd, status, invoice_id, created_at, updated_at
		FROM orders
		WHERE id = $1`, id).Scan(
		&o.ID, &o.Reference, &o.Outlet, &o.Description, &subTotal,
		&o.Status, &o.InvoiceID, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.SubTotalUSD = decimal.NewFromBigInt(subTotal.Int, subTotal.Exp)
	return &o, nil
}

// List returns orders matching the filter.
func (r *Repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	query := `
		SELECT id, reference, outlet, description, sub_total_usd, status, invoice_id, created_at, updated_at
		FROM orders
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Outlet != "" {
		query += fmt.Sprintf(" AND outlet = $%d", argNum)
		args = append(args, string(req.Outlet))
		argNum++
	}
	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.InvoiceID > 0 {
		query += fmt.Sprintf(" AND invoice_id = $%d", argNum)
		args = append(args, req.InvoiceID)
		argNum++
	}

	query += " ORDER BY created_at DESC, id DESC"

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

	var out []Order
	for rows.Next() {
		var o Order
		var subTotal pgtype.Numeric
		if err := rows.Scan(
			&o.ID, &o.Reference, &o.Outlet, &o.Description, &subTotal,
			&o.Status, &o.InvoiceID, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		o.SubTotalUSD = decimal.NewFromBigInt(subTotal.Int, subTotal.Exp)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus transitions the settlement state, guarded by the allowed
// source states.
func (r *Repository) SetStatus(ctx context.Context, id int64, from []OrderStatus, to OrderStatus) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
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

// SetInvoiceID links an unattached order to an invoice.
func (r *Repository) SetInvoiceID(ctx context.Context, id, invoiceID int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
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
