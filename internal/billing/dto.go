package billing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CreateInvoiceRequest opens an invoice for a guest. At least one
// reservation or order must be attached at creation so the invoice never
// exists without aggregable line items.
type CreateInvoiceRequest struct {
	GuestName      string  `json:"guest_name" validate:"required,max=200"`
	GuestEmail     string  `json:"guest_email" validate:"omitempty,email"`
	ReservationIDs []int64 `json:"reservation_ids" validate:"dive,gt=0"`
	OrderIDs       []int64 `json:"order_ids" validate:"dive,gt=0"`
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	Status InvoiceStatus
	Limit  int
	Offset int
}

// InvoiceResponse decorates an invoice with 2-decimal display strings.
// The stored aggregates keep full precision; formatting is display-only.
type InvoiceResponse struct {
	Invoice
	DisplayTotal   string `json:"display_total"`
	DisplayBalance string `json:"display_balance"`
}

// NewInvoiceResponse builds the API representation of an invoice.
func NewInvoiceResponse(inv Invoice) InvoiceResponse {
	return InvoiceResponse{
		Invoice:        inv,
		DisplayTotal:   FormatUSD(inv.TotalUSD),
		DisplayBalance: FormatUSD(inv.BalanceUSD),
	}
}

var usdPrinter = message.NewPrinter(language.English)

// FormatUSD renders an amount as a grouped 2-decimal USD string, e.g.
// "$1,234.50". Rounding to cents happens in decimal space and only the
// integer dollar part passes through the printer for grouping, so the
// amount never takes a trip through binary floating point.
func FormatUSD(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	dollars := fixed[:len(fixed)-3]
	cents := fixed[len(fixed)-3:]
	if n, err := strconv.ParseInt(dollars, 10, 64); err == nil {
		dollars = usdPrinter.Sprintf("%v", number.Decimal(n))
	}
	return sign + "$" + dollars + cents
}
