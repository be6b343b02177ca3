package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/harborview-pms/harborview/internal/billing"
	"github.com/harborview-pms/harborview/internal/shared"
)

// Service handles point of sale business logic. Like the front desk,
// any write that affects an invoice reconciles it in the same
// transaction.
type Service struct {
	repo        *Repository
	billing     *billing.Repository
	reconciler  *billing.Reconciler
	cache       *billing.Cache
	idempotency *shared.IdempotencyStore
	audit       *shared.AuditLogger
	logger      *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo *Repository, billingRepo *billing.Repository, reconciler *billing.Reconciler, cache *billing.Cache, idempotency *shared.IdempotencyStore, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, billing: billingRepo, reconciler: reconciler, cache: cache, idempotency: idempotency, audit: audit, logger: logger}
}

// CreateOrder charges an order against an outlet. The idempotency key
// guards against duplicate charges from till retries; a repeated key
// returns ErrIdempotencyConflict instead of double-billing the guest.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*Order, error) {
	subTotal, err := decimal.NewFromString(req.SubTotalUSD)
	if err != nil || !subTotal.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "pos"); err != nil {
		return nil, err
	}

	order := Order{
		Reference:   fmt.Sprintf("POS-%s", uuid.NewString()[:8]),
		Outlet:      req.Outlet,
		Description: req.Description,
		SubTotalUSD: subTotal,
		Status:      OrderStatusUnpaid,
		InvoiceID:   req.InvoiceID,
	}

	var created *Order
	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		created, err = s.repo.Bind(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		return s.reconciler.OnOrderCreated(ctx, s.billing.Bind(tx), created.InvoiceID)
	})
	if err != nil {
		// Release the key so the caller can retry once the fault clears.
		if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil && s.logger != nil {
			s.logger.Warn("release idempotency key", slog.Any("error", delErr))
		}
		return nil, err
	}

	s.invalidateTotals(ctx, created.InvoiceID)
	s.recordAudit(ctx, "pos.order.create", created.ID, map[string]any{
		"outlet":        string(created.Outlet),
		"sub_total_usd": created.SubTotalUSD.String(),
	})
	return created, nil
}

// GetOrder returns a single order.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// UpdateStatus settles or cancels an UNPAID order and reconciles the
// linked invoice in the same transaction. Settled and cancelled orders
// are terminal.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error) {
	if status != OrderStatusPaid && status != OrderStatusCancelled {
		return nil, ErrInvalidTransition
	}

	var out *Order
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.Bind(tx)
		order, err := txRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		old := order.Status
		if err := txRepo.SetStatus(ctx, id, []OrderStatus{OrderStatusUnpaid}, status); err != nil {
			return err
		}
		order.Status = status
		out = order
		return s.reconciler.OnOrderStatusChanged(ctx, s.billing.Bind(tx), order.InvoiceID, string(old), string(status))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTotals(ctx, out.InvoiceID)
	s.recordAudit(ctx, "pos.order.status", id, map[string]any{
		"status": string(status),
	})
	return out, nil
}

// AttachToInvoice links an unattached order to an existing invoice and
// reconciles that invoice atomically with the link.
func (s *Service) AttachToInvoice(ctx context.Context, id, invoiceID int64) error {
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Bind(tx).SetInvoiceID(ctx, id, invoiceID); err != nil {
			return err
		}
		return s.reconciler.OnOrderCreated(ctx, s.billing.Bind(tx), &invoiceID)
	})
	if err != nil {
		return err
	}

	s.invalidateTotals(ctx, &invoiceID)
	s.recordAudit(ctx, "pos.order.attach", id, map[string]any{
		"invoice_id": invoiceID,
	})
	return nil
}

// IsDuplicate reports whether err is the duplicate charge sentinel.
func IsDuplicate(err error) bool {
	return errors.Is(err, shared.ErrIdempotencyConflict)
}

// invalidateTotals drops the cached balance snapshot after a reconcile
// committed in this module's transaction. Without it the balance
// endpoint would keep serving the pre-commit snapshot until the TTL.
func (s *Service) invalidateTotals(ctx context.Context, invoiceID *int64) {
	if invoiceID == nil {
		return
	}
	if err := s.cache.Delete(ctx, *invoiceID); err != nil && s.logger != nil {
		s.logger.Warn("totals cache invalidate", slog.Any("error", err), slog.Int64("invoice_id", *invoiceID))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err), slog.String("action", action))
	}
}
