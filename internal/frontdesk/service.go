package frontdesk

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/harborview-pms/harborview/internal/billing"
	"github.com/harborview-pms/harborview/internal/rooms"
	"github.com/harborview-pms/harborview/internal/shared"
)

const stayDateLayout = "2006-01-02"

// RoomDirectory is the room inventory surface the front desk needs.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id int64) (*rooms.Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status rooms.RoomStatus) error
}

// Service handles reservation business logic. Writes that affect an
// invoice's aggregates run the ledger reconciler inside the same
// transaction so the invoice never exposes stale totals.
type Service struct {
	repo       *Repository
	rooms      RoomDirectory
	billing    *billing.Repository
	reconciler *billing.Reconciler
	cache      *billing.Cache
	audit      *shared.AuditLogger
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo *Repository, roomDir RoomDirectory, billingRepo *billing.Repository, reconciler *billing.Reconciler, cache *billing.Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, rooms: roomDir, billing: billingRepo, reconciler: reconciler, cache: cache, audit: audit, logger: logger}
}

// CreateReservation books a stay, pricing it from the room's current
// nightly rate. When an invoice is named up front the link and the
// aggregate recomputation commit atomically with the insert.
func (s *Service) CreateReservation(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	checkIn, checkOut, nights, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room.Status == rooms.RoomStatusOutOfService {
		return nil, ErrRoomUnavailable
	}

	res := Reservation{
		ConfirmationCode: uuid.NewString(),
		RoomID:           room.ID,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Nights:           nights,
		SubTotalUSD:      room.RateUSD.Mul(decimal.NewFromInt(int64(nights))),
		PaymentStatus:    PaymentStatusUnpaid,
		Status:           ReservationStatusBooked,
		InvoiceID:        req.InvoiceID,
	}

	var created *Reservation
	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		created, err = s.repo.Bind(tx).Create(ctx, res)
		if err != nil {
			return err
		}
		return s.reconciler.OnReservationCreated(ctx, s.billing.Bind(tx), created.InvoiceID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTotals(ctx, created.InvoiceID)
	s.recordAudit(ctx, "frontdesk.reservation.create", created.ID, map[string]any{
		"room_id":       created.RoomID,
		"nights":        created.Nights,
		"sub_total_usd": created.SubTotalUSD.String(),
	})
	return created, nil
}

// GetReservation returns a single reservation.
func (s *Service) GetReservation(ctx context.Context, id int64) (*Reservation, error) {
	return s.repo.Get(ctx, id)
}

// ListReservations returns reservations matching the filter.
func (s *Service) ListReservations(ctx context.Context, req ListReservationsRequest) ([]Reservation, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// CheckIn moves a booked reservation to CHECKED_IN and opens a folio
// invoice for the stay if none exists yet.
func (s *Service) CheckIn(ctx context.Context, id int64) (*Reservation, error) {
	var out *Reservation
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.Bind(tx)
		res, err := txRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := txRepo.SetStatus(ctx, id, []ReservationStatus{ReservationStatusBooked}, ReservationStatusCheckedIn); err != nil {
			return err
		}

		if res.InvoiceID == nil {
			txBilling := s.billing.Bind(tx)
			inv, err := txBilling.CreateInvoice(ctx, res.GuestName, res.GuestEmail)
			if err != nil {
				return err
			}
			if err := txRepo.SetInvoiceID(ctx, id, inv.ID); err != nil {
				return err
			}
			if err := s.reconciler.OnInvoiceCreated(ctx, txBilling, inv.ID); err != nil {
				return err
			}
			res.InvoiceID = &inv.ID
		}

		res.Status = ReservationStatusCheckedIn
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTotals(ctx, out.InvoiceID)
	if err := s.rooms.UpdateRoomStatus(ctx, out.RoomID, rooms.RoomStatusOccupied); err != nil && s.logger != nil {
		s.logger.Warn("occupy room", slog.Any("error", err), slog.Int64("room_id", out.RoomID))
	}
	s.recordAudit(ctx, "frontdesk.reservation.check_in", id, nil)
	return out, nil
}

// CheckOut moves a checked-in reservation to CHECKED_OUT and releases
// the room.
func (s *Service) CheckOut(ctx context.Context, id int64) (*Reservation, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, []ReservationStatus{ReservationStatusCheckedIn}, ReservationStatusCheckedOut); err != nil {
		return nil, err
	}
	res.Status = ReservationStatusCheckedOut

	if err := s.rooms.UpdateRoomStatus(ctx, res.RoomID, rooms.RoomStatusAvailable); err != nil && s.logger != nil {
		s.logger.Warn("release room", slog.Any("error", err), slog.Int64("room_id", res.RoomID))
	}
	s.recordAudit(ctx, "frontdesk.reservation.check_out", id, nil)
	return res, nil
}

// UpdatePaymentStatus flips the settlement state and reconciles the
// linked invoice in the same transaction, so the outstanding balance can
// never disagree with the reservation rows at commit time.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Reservation, error) {
	var out *Reservation
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.Bind(tx)
		res, err := txRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		old := res.PaymentStatus
		if err := txRepo.SetPaymentStatus(ctx, id, status); err != nil {
			return err
		}
		res.PaymentStatus = status
		out = res
		return s.reconciler.OnReservationPaymentStatusChanged(ctx, s.billing.Bind(tx), res.InvoiceID, string(old), string(status))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTotals(ctx, out.InvoiceID)
	s.recordAudit(ctx, "frontdesk.reservation.payment_status", id, map[string]any{
		"payment_status": string(status),
	})
	return out, nil
}

// AttachToInvoice links an unattached reservation to an existing invoice
// and reconciles that invoice atomically with the link.
func (s *Service) AttachToInvoice(ctx context.Context, id, invoiceID int64) error {
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Bind(tx).SetInvoiceID(ctx, id, invoiceID); err != nil {
			return err
		}
		return s.reconciler.OnReservationCreated(ctx, s.billing.Bind(tx), &invoiceID)
	})
	if err != nil {
		return err
	}

	s.invalidateTotals(ctx, &invoiceID)
	s.recordAudit(ctx, "frontdesk.reservation.attach", id, map[string]any{
		"invoice_id": invoiceID,
	})
	return nil
}

// Cancel cancels a booked reservation. Reservations already on an
// invoice must be handled through billing instead.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if res.InvoiceID != nil {
		return ErrAlreadyAttached
	}
	if err := s.repo.SetStatus(ctx, id, []ReservationStatus{ReservationStatusBooked}, ReservationStatusCancelled); err != nil {
		return err
	}
	s.recordAudit(ctx, "frontdesk.reservation.cancel", id, nil)
	return nil
}

// parseStay validates the stay window and derives the night count.
func parseStay(checkInStr, checkOutStr string) (time.Time, time.Time, int, error) {
	checkIn, err := time.Parse(stayDateLayout, checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, 0, ErrInvalidStay
	}
	checkOut, err := time.Parse(stayDateLayout, checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, 0, ErrInvalidStay
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights <= 0 {
		return time.Time{}, time.Time{}, 0, ErrInvalidStay
	}
	return checkIn, checkOut, nights, nil
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

func (s *Service) recordAudit(ctx context.Context, action string, reservationID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "reservation",
		EntityID: strconv.FormatInt(reservationID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err), slog.String("action", action))
	}
}
