package billing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewCache(client, time.Minute)
	ctx := context.Background()

	missing, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, missing)

	totals := InvoiceTotals{TotalUSD: d("115.50"), BalanceUSD: d("100.00")}
	require.NoError(t, c.Set(ctx, 1, totals))

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.TotalUSD.Equal(totals.TotalUSD))
	require.True(t, got.BalanceUSD.Equal(totals.BalanceUSD))
}

func TestCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 2, InvoiceTotals{TotalUSD: d("15.50"), BalanceUSD: d("15.50")}))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, 2)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCacheDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 3, InvoiceTotals{TotalUSD: d("100.00"), BalanceUSD: d("100.00")}))
	require.NoError(t, c.Delete(ctx, 3))

	got, err := c.Get(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, got)

	var disabled *Cache
	require.NoError(t, disabled.Delete(ctx, 3))
}

func TestCacheDisabledIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, c.Set(ctx, 1, InvoiceTotals{}))

	nilClient := NewCache(nil, time.Minute)
	got, err = nilClient.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
}
