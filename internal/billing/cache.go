package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps a short-lived snapshot of invoice aggregates in Redis so
// balance lookups can skip the database. The database remains the source
// of truth: the billing service refreshes the snapshot after the
// reconciles it runs itself, and the front desk and point of sale
// invalidate it after reconciling inside their own transactions.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a totals cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(invoiceID int64) string {
	return fmt.Sprintf("billing:invoice:%d:totals", invoiceID)
}

// Get returns the cached totals, or nil on a miss.
func (c *Cache) Get(ctx context.Context, invoiceID int64) (*InvoiceTotals, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, cacheKey(invoiceID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var totals InvoiceTotals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// Delete drops the snapshot so the next balance read goes to the
// database. Writers that reconcile in their own transactions invalidate
// instead of refreshing; the totals they hold predate the commit.
func (c *Cache) Delete(ctx context.Context, invoiceID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(invoiceID)).Err()
}

// Set stores the totals snapshot.
func (c *Cache) Set(ctx context.Context, invoiceID int64, totals InvoiceTotals) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(totals)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(invoiceID), raw, c.ttl).Err()
}
