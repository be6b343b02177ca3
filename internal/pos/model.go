package pos

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Outlet identifies which point of sale produced an order.
type Outlet string

const (
	OutletBar     Outlet = "BAR"
	OutletKitchen Outlet = "KITCHEN"
)

// OrderStatus enumerates order settlement states. CANCELLED orders stay
// on their invoice and keep counting toward its total; only the UNPAID
// state contributes to the outstanding balance.
type OrderStatus string

const (
	OrderStatusUnpaid    OrderStatus = "UNPAID"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrOrderNotFound     = errors.New("pos: order not found")
	ErrInvalidAmount     = errors.New("pos: sub total must be a positive decimal")
	ErrInvalidTransition = errors.New("pos: order is not in a valid state for this transition")
	ErrAlreadyAttached   = errors.New("pos: order already linked to an invoice")
)

// Order model.
type Order struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	Outlet      Outlet          `json:"outlet"`
	Description string          `json:"description"`
	SubTotalUSD decimal.Decimal `json:"sub_total_usd"`
	Status      OrderStatus     `json:"status"`
	InvoiceID   *int64          `json:"invoice_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
