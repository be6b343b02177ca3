package frontdesk

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harborview-pms/harborview/internal/billing"
	"github.com/harborview-pms/harborview/internal/platform/httpx"
	"github.com/harborview-pms/harborview/internal/rooms"
)

// Handler manages reservation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers reservation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reservations", h.listReservations)
	r.Post("/reservations", h.createReservation)
	r.Get("/reservations/{id}", h.getReservation)
	r.Post("/reservations/{id}/check-in", h.checkIn)
	r.Post("/reservations/{id}/check-out", h.checkOut)
	r.Patch("/reservations/{id}/payment-status", h.updatePaymentStatus)
	r.Post("/reservations/{id}/attach", h.attachInvoice)
	r.Post("/reservations/{id}/cancel", h.cancel)
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	req := ListReservationsRequest{
		Status: ReservationStatus(r.URL.Query().Get("status")),
	}
	req.RoomID, _ = strconv.ParseInt(r.URL.Query().Get("room_id"), 10, 64)
	req.InvoiceID, _ = strconv.ParseInt(r.URL.Query().Get("invoice_id"), 10, 64)
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	out, err := h.service.ListReservations(r.Context(), req)
	if err != nil {
		h.logger.Error("list reservations", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.service.CreateReservation(r.Context(), req)
	if err != nil {
		h.logger.Error("create reservation", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	res, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	res, err := h.service.CheckIn(r.Context(), id)
	if err != nil {
		h.logger.Error("check in", slog.Any("error", err), slog.Int64("id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	res, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		h.logger.Error("check out", slog.Any("error", err), slog.Int64("id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	var req UpdatePaymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.service.UpdatePaymentStatus(r.Context(), id, req.PaymentStatus)
	if err != nil {
		h.logger.Error("update payment status", slog.Any("error", err), slog.Int64("id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) attachInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	var req AttachInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.AttachToInvoice(r.Context(), id, req.InvoiceID); err != nil {
		h.logger.Error("attach reservation", slog.Any("error", err), slog.Int64("id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"invoice_id": req.InvoiceID})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		h.logger.Error("cancel reservation", slog.Any("error", err), slog.Int64("id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(ReservationStatusCancelled)})
}

func (h *Handler) reservationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid reservation ID", "")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, rooms.ErrNotFound), errors.Is(err, billing.ErrInvoiceNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStay):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrAlreadyAttached):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
