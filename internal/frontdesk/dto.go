package frontdesk

// CreateReservationRequest books a stay. Dates use YYYY-MM-DD.
type CreateReservationRequest struct {
	RoomID     int64  `json:"room_id" validate:"required,gt=0"`
	GuestName  string `json:"guest_name" validate:"required,max=100"`
	GuestEmail string `json:"guest_email" validate:"omitempty,email"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	InvoiceID  *int64 `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdatePaymentStatusRequest flips a reservation between PAID and UNPAID.
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=PAID UNPAID"`
}

// AttachInvoiceRequest links a reservation to an existing invoice.
type AttachInvoiceRequest struct {
	InvoiceID int64 `json:"invoice_id" validate:"required,gt=0"`
}

// ListReservationsRequest filters reservation listings.
type ListReservationsRequest struct {
	Status    ReservationStatus
	RoomID    int64
	InvoiceID int64
	Limit     int
	Offset    int
}
