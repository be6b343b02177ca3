package billing

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/harborview-pms/harborview/internal/shared"
)

// ErrNoAttachments rejects creating an invoice without any line items,
// which would otherwise be born unreconcilable.
var ErrNoAttachments = errors.New("billing: invoice requires at least one reservation or order")

// Service handles invoice business logic.
type Service struct {
	repo       *Repository
	reconciler *Reconciler
	cache      *Cache
	audit      *shared.AuditLogger
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo *Repository, reconciler *Reconciler, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, reconciler: reconciler, cache: cache, audit: audit, logger: logger}
}

// CreateInvoice opens an invoice, attaches the given reservations and
// orders, and reconciles, all in one transaction.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if len(req.ReservationIDs)+len(req.OrderIDs) == 0 {
		return nil, ErrNoAttachments
	}

	var inv *Invoice
	var totals InvoiceTotals
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.Bind(tx)

		created, err := txRepo.CreateInvoice(ctx, req.GuestName, req.GuestEmail)
		if err != nil {
			return err
		}
		for _, id := range req.ReservationIDs {
			if err := txRepo.AttachReservation(ctx, id, created.ID); err != nil {
				return err
			}
		}
		for _, id := range req.OrderIDs {
			if err := txRepo.AttachOrder(ctx, id, created.ID); err != nil {
				return err
			}
		}

		totals, err = s.reconciler.ReconcileIn(ctx, txRepo, created.ID)
		if err != nil {
			return err
		}
		inv = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.TotalUSD = totals.TotalUSD
	inv.BalanceUSD = totals.BalanceUSD
	s.cacheTotals(ctx, inv.ID, totals)
	s.recordAudit(ctx, "billing.invoice.create", inv.ID, map[string]any{
		"number":      inv.Number,
		"total_usd":   totals.TotalUSD.String(),
		"balance_usd": totals.BalanceUSD.String(),
	})
	return inv, nil
}

// Reconcile recomputes an invoice's aggregates on demand, for the manual
// recalculate action. Idempotent: repeated calls with no intervening
// writes yield identical totals.
func (s *Service) Reconcile(ctx context.Context, invoiceID int64) (InvoiceTotals, error) {
	var totals InvoiceTotals
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		totals, err = s.reconciler.ReconcileIn(ctx, s.repo.Bind(tx), invoiceID)
		return err
	})
	if err != nil {
		return InvoiceTotals{}, err
	}

	s.cacheTotals(ctx, invoiceID, totals)
	s.recordAudit(ctx, "billing.invoice.reconcile", invoiceID, map[string]any{
		"total_usd":   totals.TotalUSD.String(),
		"balance_usd": totals.BalanceUSD.String(),
	})
	return totals, nil
}

// GetInvoice returns a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// Balance returns the invoice aggregates, served from the snapshot cache
// when fresh.
func (s *Service) Balance(ctx context.Context, id int64) (InvoiceTotals, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil && s.logger != nil {
		s.logger.Warn("totals cache read", slog.Any("error", err), slog.Int64("invoice_id", id))
	}

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return InvoiceTotals{}, err
	}
	totals := InvoiceTotals{TotalUSD: inv.TotalUSD, BalanceUSD: inv.BalanceUSD}
	s.cacheTotals(ctx, id, totals)
	return totals, nil
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.ListInvoices(ctx, req)
}

// SettleInvoice marks a fully paid invoice as settled.
func (s *Service) SettleInvoice(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.Bind(tx)
		inv, err := txRepo.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureSettleable(inv); err != nil {
			return err
		}
		return txRepo.UpdateInvoiceStatus(ctx, id, []InvoiceStatus{InvoiceStatusOpen}, InvoiceStatusSettled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "billing.invoice.settle", id, nil)
	return nil
}

// ensureSettleable rejects settling while any balance is outstanding.
func ensureSettleable(inv *Invoice) error {
	if !inv.BalanceUSD.IsZero() {
		return ErrBalanceOutstanding
	}
	return nil
}

// VoidInvoice voids an open invoice. The last reconciled aggregates stay
// on the record.
func (s *Service) VoidInvoice(ctx context.Context, id int64) error {
	if err := s.repo.UpdateInvoiceStatus(ctx, id, []InvoiceStatus{InvoiceStatusOpen}, InvoiceStatusVoid); err != nil {
		return err
	}
	s.recordAudit(ctx, "billing.invoice.void", id, nil)
	return nil
}

// ListReconcilableInvoiceIDs exposes sweepable invoices to the jobs layer.
func (s *Service) ListReconcilableInvoiceIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListReconcilableInvoiceIDs(ctx)
}

func (s *Service) cacheTotals(ctx context.Context, invoiceID int64, totals InvoiceTotals) {
	if err := s.cache.Set(ctx, invoiceID, totals); err != nil && s.logger != nil {
		s.logger.Warn("totals cache write", slog.Any("error", err), slog.Int64("invoice_id", invoiceID))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(invoiceID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err), slog.String("action", action))
	}
}
