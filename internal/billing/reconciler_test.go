package billing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	amount decimal.Decimal
	status string
}

// fakeLedger mimics the aggregate queries over in-memory line items,
// including the NULL-vs-zero distinction for empty result sets.
type fakeLedger struct {
	reservations map[int64][]fakeItem
	orders       map[int64][]fakeItem
	totals       map[int64]InvoiceTotals
	updateCalls  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		reservations: make(map[int64][]fakeItem),
		orders:       make(map[int64][]fakeItem),
		totals:       make(map[int64]InvoiceTotals),
	}
}

func sumItems(items []fakeItem) (total, outstanding *decimal.Decimal) {
	if len(items) == 0 {
		return nil, nil
	}
	t := decimal.Zero
	for _, it := range items {
		t = t.Add(it.amount)
		if it.status == "UNPAID" {
			if outstanding == nil {
				z := decimal.Zero
				outstanding = &z
			}
			o := outstanding.Add(it.amount)
			outstanding = &o
		}
	}
	return &t, outstanding
}

func (f *fakeLedger) LineItemSums(_ context.Context, invoiceID int64) (LineItemSums, error) {
	var sums LineItemSums
	sums.ReservationTotal, sums.ReservationOutstanding = sumItems(f.reservations[invoiceID])
	sums.OrderTotal, sums.OrderOutstanding = sumItems(f.orders[invoiceID])
	return sums, nil
}

func (f *fakeLedger) UpdateInvoiceTotals(_ context.Context, invoiceID int64, totals InvoiceTotals) error {
	f.updateCalls++
	f.totals[invoiceID] = totals
	return nil
}

func newTestReconciler(store LedgerStore) *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconciler(store, logger, nil)
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReconcileMixedLineItems(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[1] = []fakeItem{{amount: d("100.00"), status: "UNPAID"}}
	ledger.orders[1] = []fakeItem{{amount: d("15.50"), status: "PAID"}}

	totals, err := newTestReconciler(ledger).Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, totals.TotalUSD.Equal(d("115.50")), "total %s", totals.TotalUSD)
	require.True(t, totals.BalanceUSD.Equal(d("100.00")), "balance %s", totals.BalanceUSD)

	saved, ok := ledger.totals[1]
	require.True(t, ok)
	require.True(t, saved.TotalUSD.Equal(totals.TotalUSD))
	require.True(t, saved.BalanceUSD.Equal(totals.BalanceUSD))
}

func TestReconcileSingleUnpaidReservation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[7] = []fakeItem{{amount: d("100.00"), status: "UNPAID"}}

	totals, err := newTestReconciler(ledger).Reconcile(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, totals.TotalUSD.Equal(d("100.00")))
	require.True(t, totals.BalanceUSD.Equal(d("100.00")))
}

func TestReconcilePartiallyPaidReservations(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[9] = []fakeItem{
		{amount: d("40.00"), status: "UNPAID"},
		{amount: d("60.00"), status: "PAID"},
	}

	totals, err := newTestReconciler(ledger).Reconcile(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, totals.TotalUSD.Equal(d("100.00")))
	require.True(t, totals.BalanceUSD.Equal(d("40.00")))
}

func TestReconcileAllPaidYieldsZeroBalance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[2] = []fakeItem{{amount: d("100.00"), status: "PAID"}}
	ledger.orders[2] = []fakeItem{{amount: d("15.50"), status: "PAID"}}

	totals, err := newTestReconciler(ledger).Reconcile(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, totals.TotalUSD.Equal(d("115.50")))
	require.True(t, totals.BalanceUSD.IsZero(), "balance %s", totals.BalanceUSD)
}

func TestReconcileEmptyInvoiceFails(t *testing.T) {
	ledger := newFakeLedger()

	_, err := newTestReconciler(ledger).Reconcile(context.Background(), 99)
	require.ErrorIs(t, err, ErrNoLineItems)
	require.Zero(t, ledger.updateCalls, "a failed reconcile must not write aggregates")
}

func TestReconcileCancelledOrdersCountTowardTotal(t *testing.T) {
	ledger := newFakeLedger()
	ledger.orders[3] = []fakeItem{
		{amount: d("40.00"), status: "UNPAID"},
		{amount: d("60.00"), status: "CANCELLED"},
	}

	totals, err := newTestReconciler(ledger).Reconcile(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, totals.TotalUSD.Equal(d("100.00")))
	require.True(t, totals.BalanceUSD.Equal(d("40.00")))
}

func TestReconcileIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[4] = []fakeItem{{amount: d("100.00"), status: "UNPAID"}}
	ledger.orders[4] = []fakeItem{{amount: d("15.50"), status: "UNPAID"}}
	rec := newTestReconciler(ledger)

	first, err := rec.Reconcile(context.Background(), 4)
	require.NoError(t, err)
	second, err := rec.Reconcile(context.Background(), 4)
	require.NoError(t, err)

	require.True(t, first.TotalUSD.Equal(second.TotalUSD))
	require.True(t, first.BalanceUSD.Equal(second.BalanceUSD))
	require.Equal(t, 2, ledger.updateCalls)
}

func TestReconcileTracksPaymentStatusChange(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[5] = []fakeItem{{amount: d("100.00"), status: "UNPAID"}}
	rec := newTestReconciler(ledger)

	totals, err := rec.Reconcile(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, totals.BalanceUSD.Equal(d("100.00")))

	ledger.reservations[5][0].status = "PAID"
	invoiceID := int64(5)
	err = rec.OnReservationPaymentStatusChanged(context.Background(), ledger, &invoiceID, "UNPAID", "PAID")
	require.NoError(t, err)

	saved := ledger.totals[5]
	require.True(t, saved.TotalUSD.Equal(d("100.00")), "total must survive the flip")
	require.True(t, saved.BalanceUSD.IsZero())
}

func TestHooksSkipUnlinkedLineItems(t *testing.T) {
	ledger := newFakeLedger()
	rec := newTestReconciler(ledger)
	ctx := context.Background()

	require.NoError(t, rec.OnReservationCreated(ctx, ledger, nil))
	require.NoError(t, rec.OnOrderCreated(ctx, ledger, nil))
	require.NoError(t, rec.OnReservationPaymentStatusChanged(ctx, ledger, nil, "UNPAID", "PAID"))
	require.NoError(t, rec.OnOrderStatusChanged(ctx, ledger, nil, "UNPAID", "PAID"))
	require.Zero(t, ledger.updateCalls)
}

func TestStatusHookIgnoresNoopTransition(t *testing.T) {
	ledger := newFakeLedger()
	ledger.reservations[6] = []fakeItem{{amount: d("100.00"), status: "UNPAID"}}
	rec := newTestReconciler(ledger)
	invoiceID := int64(6)

	err := rec.OnReservationPaymentStatusChanged(context.Background(), ledger, &invoiceID, "UNPAID", "UNPAID")
	require.NoError(t, err)
	require.Zero(t, ledger.updateCalls)
}

func TestOrderHooksReconcileLinkedInvoice(t *testing.T) {
	ledger := newFakeLedger()
	ledger.orders[8] = []fakeItem{{amount: d("15.50"), status: "UNPAID"}}
	rec := newTestReconciler(ledger)
	invoiceID := int64(8)

	require.NoError(t, rec.OnOrderCreated(context.Background(), ledger, &invoiceID))
	require.True(t, ledger.totals[8].BalanceUSD.Equal(d("15.50")))

	ledger.orders[8][0].status = "PAID"
	require.NoError(t, rec.OnOrderStatusChanged(context.Background(), ledger, &invoiceID, "UNPAID", "PAID"))
	require.True(t, ledger.totals[8].BalanceUSD.IsZero())
	require.True(t, ledger.totals[8].TotalUSD.Equal(d("15.50")))
}
