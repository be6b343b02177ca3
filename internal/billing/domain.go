package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "OPEN"
	InvoiceStatusSettled InvoiceStatus = "SETTLED"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// Invoice aggregates the reservations and orders billed to one guest.
// TotalUSD and BalanceUSD are owned by the reconciler; nothing else
// writes them.
type Invoice struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	GuestName  string          `json:"guest_name"`
	GuestEmail string          `json:"guest_email,omitempty"`
	TotalUSD   decimal.Decimal `json:"total_usd"`
	BalanceUSD decimal.Decimal `json:"balance_usd"`
	Status     InvoiceStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InvoiceTotals is the pair of aggregates the reconciler maintains.
type InvoiceTotals struct {
	TotalUSD   decimal.Decimal `json:"total_usd"`
	BalanceUSD decimal.Decimal `json:"balance_usd"`
}

// LineItemSums carries the four aggregate sums for one invoice. A nil
// entry preserves SQL NULL, meaning no rows matched; the distinction
// between NULL and zero drives the empty-invoice failure mode.
type LineItemSums struct {
	ReservationTotal       *decimal.Decimal
	OrderTotal             *decimal.Decimal
	ReservationOutstanding *decimal.Decimal
	OrderOutstanding       *decimal.Decimal
}

var (
	// ErrNoLineItems is returned when an invoice has no reservations and
	// no orders at all. Reconciling such an invoice fails rather than
	// silently writing a zero total.
	ErrNoLineItems = errors.New("billing: invoice has no reservations or orders to aggregate")

	// ErrInvoiceNotFound indicates the target invoice does not exist.
	ErrInvoiceNotFound = errors.New("billing: invoice not found")

	// ErrBalanceOutstanding rejects settling an invoice that still has an
	// unpaid balance.
	ErrBalanceOutstanding = errors.New("billing: invoice balance is not zero")

	// ErrInvalidStatus indicates a disallowed invoice status transition.
	ErrInvalidStatus = errors.New("billing: invalid status transition")
)
