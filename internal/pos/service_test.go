package pos

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harborview-pms/harborview/internal/billing"
)

func TestCreateOrderRejectsBadAmounts(t *testing.T) {
	svc := &Service{}

	for _, amount := range []string{"abc", "-3", "0", ""} {
		_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
			Outlet:      OutletBar,
			Description: "draft beer",
			SubTotalUSD: amount,
		}, "")
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)
	}
}

func TestUpdateStatusRejectsInvalidTargets(t *testing.T) {
	svc := &Service{}

	_, err := svc.UpdateStatus(context.Background(), 1, OrderStatusUnpaid)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(context.Background(), 1, OrderStatus("REFUNDED"))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

// Settling an order here must not leave a stale balance snapshot for
// the linked invoice.
func TestInvalidateTotalsDropsCachedBalance(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := billing.NewCache(client, time.Minute)
	ctx := context.Background()
	stale := billing.InvoiceTotals{
		TotalUSD:   decimal.RequireFromString("15.50"),
		BalanceUSD: decimal.RequireFromString("15.50"),
	}
	require.NoError(t, cache.Set(ctx, 8, stale))

	svc := &Service{cache: cache}
	invoiceID := int64(8)
	svc.invalidateTotals(ctx, &invoiceID)

	got, err := cache.Get(ctx, 8)
	require.NoError(t, err)
	require.Nil(t, got)

	// Unattached orders leave the cache alone.
	require.NoError(t, cache.Set(ctx, 9, stale))
	svc.invalidateTotals(ctx, nil)
	got, err = cache.Get(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, got)
}
