package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborview-pms/harborview/internal/observability"
)

// LedgerStore is the persistence surface the reconciler needs. It is
// satisfied by *Repository bound to either the pool or a transaction, so
// callers can run the triggering write and the reconciliation as one unit.
type LedgerStore interface {
	LineItemSums(ctx context.Context, invoiceID int64) (LineItemSums, error)
	UpdateInvoiceTotals(ctx context.Context, invoiceID int64, totals InvoiceTotals) error
}

// Reconciler keeps every invoice's total and outstanding balance equal to
// the aggregate of its reservations and orders. It recomputes both values
// from scratch on every trigger; the invoice is the unit of recomputation
// and there are no cross-invoice effects.
type Reconciler struct {
	store   LedgerStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReconciler builds a Reconciler around the given store. The store is
// injected once at process start and held for the process lifetime.
func NewReconciler(store LedgerStore, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{store: store, logger: logger, metrics: metrics}
}

// Reconcile recomputes and persists the invoice aggregates using the store
// injected at construction.
func (r *Reconciler) Reconcile(ctx context.Context, invoiceID int64) (InvoiceTotals, error) {
	return r.ReconcileIn(ctx, r.store, invoiceID)
}

// ReconcileIn runs against a caller-provided store, typically one bound to
// the caller's transaction so the triggering write and the aggregate
// update commit or roll back together.
func (r *Reconciler) ReconcileIn(ctx context.Context, store LedgerStore, invoiceID int64) (InvoiceTotals, error) {
	start := time.Now()

	sums, err := store.LineItemSums(ctx, invoiceID)
	if err != nil {
		r.metrics.ObserveReconcile("error", time.Since(start))
		return InvoiceTotals{}, fmt.Errorf("aggregate invoice %d: %w", invoiceID, err)
	}

	// Both total sums NULL means the invoice has no line items on either
	// side. That is a hard failure, never a silent zero write. An invoice
	// where everything is PAID still has rows, so only its outstanding
	// sums are NULL and those fall through to zero below.
	if sums.ReservationTotal == nil && sums.OrderTotal == nil {
		r.metrics.ObserveReconcile("no_line_items", time.Since(start))
		return InvoiceTotals{}, fmt.Errorf("reconcile invoice %d: %w", invoiceID, ErrNoLineItems)
	}

	totals := InvoiceTotals{
		TotalUSD:   orZero(sums.ReservationTotal).Add(orZero(sums.OrderTotal)),
		BalanceUSD: orZero(sums.ReservationOutstanding).Add(orZero(sums.OrderOutstanding)),
	}

	if err := store.UpdateInvoiceTotals(ctx, invoiceID, totals); err != nil {
		r.metrics.ObserveReconcile("error", time.Since(start))
		return InvoiceTotals{}, fmt.Errorf("persist invoice %d totals: %w", invoiceID, err)
	}

	r.metrics.ObserveReconcile("ok", time.Since(start))
	if r.logger != nil {
		r.logger.Debug("invoice reconciled",
			slog.Int64("invoice_id", invoiceID),
			slog.String("total_usd", totals.TotalUSD.String()),
			slog.String("balance_usd", totals.BalanceUSD.String()),
		)
	}
	return totals, nil
}

// OnInvoiceCreated reconciles a freshly created invoice. The invoice is
// expected to have at least one reservation or order attached in the same
// transaction; a bare invoice fails with ErrNoLineItems.
func (r *Reconciler) OnInvoiceCreated(ctx context.Context, store LedgerStore, invoiceID int64) error {
	_, err := r.ReconcileIn(ctx, store, invoiceID)
	return err
}

// OnReservationCreated reconciles the linked invoice after a reservation
// insert. A reservation without an invoice link is a no-op.
func (r *Reconciler) OnReservationCreated(ctx context.Context, store LedgerStore, invoiceID *int64) error {
	if invoiceID == nil {
		return nil
	}
	_, err := r.ReconcileIn(ctx, store, *invoiceID)
	return err
}

// OnReservationPaymentStatusChanged reconciles after a payment status
// transition. No-op when the status did not actually change or the
// reservation is not linked to an invoice.
func (r *Reconciler) OnReservationPaymentStatusChanged(ctx context.Context, store LedgerStore, invoiceID *int64, oldStatus, newStatus string) error {
	if invoiceID == nil || oldStatus == newStatus {
		return nil
	}
	_, err := r.ReconcileIn(ctx, store, *invoiceID)
	return err
}

// OnOrderCreated reconciles the linked invoice after an order insert.
func (r *Reconciler) OnOrderCreated(ctx context.Context, store LedgerStore, invoiceID *int64) error {
	if invoiceID == nil {
		return nil
	}
	_, err := r.ReconcileIn(ctx, store, *invoiceID)
	return err
}

// OnOrderStatusChanged reconciles after an order settlement status
// transition, mirroring the reservation hook.
func (r *Reconciler) OnOrderStatusChanged(ctx context.Context, store LedgerStore, invoiceID *int64, oldStatus, newStatus string) error {
	if invoiceID == nil || oldStatus == newStatus {
		return nil
	}
	_, err := r.ReconcileIn(ctx, store, *invoiceID)
	return err
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
