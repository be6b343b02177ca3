package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"15.5", "$15.50"},
		{"115.50", "$115.50"},
		{"1234.5", "$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"-1234.5", "-$1,234.50"},
		{"1234.567", "$1,234.57"},
		// Past float64's 53-bit integer precision; must stay exact.
		{"90071992547409931.25", "$90,071,992,547,409,931.25"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatUSD(d(tc.in)), "input %s", tc.in)
	}
}

func TestNewInvoiceResponse(t *testing.T) {
	inv := Invoice{
		ID:         1,
		Number:     "INV-000001",
		TotalUSD:   d("115.50"),
		BalanceUSD: d("100.00"),
		Status:     InvoiceStatusOpen,
	}
	resp := NewInvoiceResponse(inv)
	require.Equal(t, "$115.50", resp.DisplayTotal)
	require.Equal(t, "$100.00", resp.DisplayBalance)
	require.Equal(t, inv.Number, resp.Number)
}
