package pos

// CreateOrderRequest charges a point of sale order. SubTotalUSD is a
// decimal string; monetary values never travel as floats.
type CreateOrderRequest struct {
	Outlet      Outlet `json:"outlet" validate:"required,oneof=BAR KITCHEN"`
	Description string `json:"description" validate:"required,max=255"`
	SubTotalUSD string `json:"sub_total_usd" validate:"required"`
	InvoiceID   *int64 `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateOrderStatusRequest transitions an order's settlement state.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=PAID CANCELLED"`
}

// AttachInvoiceRequest links an order to an existing invoice.
type AttachInvoiceRequest struct {
	InvoiceID int64 `json:"invoice_id" validate:"required,gt=0"`
}

// ListOrdersRequest filters order listings.
type ListOrdersRequest struct {
	Outlet    Outlet
	Status    OrderStatus
	InvoiceID int64
	Limit     int
	Offset    int
}
