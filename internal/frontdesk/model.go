package frontdesk

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates reservation settlement states.
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
)

// ReservationStatus enumerates reservation lifecycle states.
type ReservationStatus string

const (
	ReservationStatusBooked     ReservationStatus = "BOOKED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
)

var (
	ErrReservationNotFound = errors.New("frontdesk: reservation not found")
	ErrInvalidStay         = errors.New("frontdesk: check-out must be after check-in")
	ErrInvalidTransition   = errors.New("frontdesk: reservation is not in a valid state for this transition")
	ErrRoomUnavailable     = errors.New("frontdesk: room is not available")
	ErrAlreadyAttached     = errors.New("frontdesk: reservation already linked to an invoice")
)

// Reservation model. SubTotalUSD is the stay price, nights times the room
// rate at booking time, frozen on the row so later rate changes do not
// rewrite history.
type Reservation struct {
	ID               int64             `json:"id"`
	ConfirmationCode string            `json:"confirmation_code"`
	RoomID           int64             `json:"room_id"`
	GuestName        string            `json:"guest_name"`
	GuestEmail       string            `json:"guest_email,omitempty"`
	CheckIn          time.Time         `json:"check_in"`
	CheckOut         time.Time         `json:"check_out"`
	Nights           int               `json:"nights"`
	SubTotalUSD      decimal.Decimal   `json:"sub_total_usd"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	Status           ReservationStatus `json:"status"`
	InvoiceID        *int64            `json:"invoice_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
