package frontdesk

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

func TestParseStay(t *testing.T) {
	checkIn, checkOut, nights, err := parseStay("2026-09-01", "2026-09-04")
	require.NoError(t, err)
	require.Equal(t, 3, nights)
	require.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), checkIn)
	require.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), checkOut)
}

func TestParseStayRejectsNonPositiveStays(t *testing.T) {
	_, _, _, err := parseStay("2026-09-04", "2026-09-04")
	require.ErrorIs(t, err, ErrInvalidStay)

	_, _, _, err = parseStay("2026-09-04", "2026-09-01")
	require.ErrorIs(t, err, ErrInvalidStay)
}

func TestParseStayRejectsBadDates(t *testing.T) {
	_, _, _, err := parseStay("not-a-date", "2026-09-04")
	require.ErrorIs(t, err, ErrInvalidStay)

	_, _, _, err = parseStay("2026-09-01", "04/09/2026")
	require.ErrorIs(t, err, ErrInvalidStay)
}

// A payment marked in this module must not leave a pre-payment balance
// snapshot behind; the next balance read has to hit the database.
func TestInvalidateTotalsDropsCachedBalance(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := billing.NewCache(client, time.Minute)
	ctx := context.Background()
	stale := billing.InvoiceTotals{
		TotalUSD:   decimal.RequireFromString("115.50"),
		BalanceUSD: decimal.RequireFromString("100.00"),
	}
	require.NoError(t, cache.Set(ctx, 1, stale))

	svc := &Service{cache: cache}
	invoiceID := int64(1)
	svc.invalidateTotals(ctx, &invoiceID)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)

	// Reservations without an invoice leave the cache alone.
	require.NoError(t, cache.Set(ctx, 2, stale))
	svc.invalidateTotals(ctx, nil)
	got, err = cache.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
}
