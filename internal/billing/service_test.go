package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceRequiresAttachments(t *testing.T) {
	svc := &Service{}

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		GuestName: "Ada Diaz",
	})
	require.ErrorIs(t, err, ErrNoAttachments)

	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		GuestName:      "Ada Diaz",
		ReservationIDs: []int64{},
		OrderIDs:       []int64{},
	})
	require.ErrorIs(t, err, ErrNoAttachments)
}

func TestSettleRequiresZeroBalance(t *testing.T) {
	err := ensureSettleable(&Invoice{BalanceUSD: d("40.00")})
	require.ErrorIs(t, err, ErrBalanceOutstanding)

	require.NoError(t, ensureSettleable(&Invoice{BalanceUSD: decimal.Zero}))
	require.NoError(t, ensureSettleable(&Invoice{BalanceUSD: d("0.00")}))
}
