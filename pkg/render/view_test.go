package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
)

func sampleInvoice(t *testing.T, name string) invoice.Invoice {
	t.Helper()
	inv, err := invoice.Compute(invoice.Params{
		StudentCount: 35,
		UnitPrice:    decimal.NewFromInt(1000),
		RefundRate:   decimal.RequireFromString("0.3"),
		CustomerName: name,
	}, time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return inv
}

func TestNewViewJapanese(t *testing.T) {
	v, err := NewView(sampleInvoice(t, "Sample Corp"), DefaultIssuer(), LocaleJA)
	require.NoError(t, err)

	require.Equal(t, "2025年07月10日", v.IssueDate)
	require.Equal(t, "2025年07月", v.BillingMonth)
	require.Equal(t, "2025年08月10日", v.DueDate)
	require.Equal(t, "35名", v.StudentCount)
	require.Equal(t, "¥1,000", v.UnitPrice)
	require.Equal(t, "30%", v.RefundRate)
	require.Equal(t, "¥10,500", v.TotalAmount)
	require.Equal(t, "当月（2025年07月）の登録学生数に基づき、以下の通りご請求申し上げます。", v.Intro)
}

func TestNewViewEnglish(t *testing.T) {
	v, err := NewView(sampleInvoice(t, "Sample Corp"), Issuer{}, LocaleEN)
	require.NoError(t, err)

	require.Equal(t, "2025-07-10", v.IssueDate)
	require.Equal(t, "July 2025", v.BillingMonth)
	require.Equal(t, "2025-08-10", v.DueDate)
	require.Equal(t, "35", v.StudentCount)
	require.Equal(t, "¥10,500", v.TotalAmount)
	require.Empty(t, v.Labels.Honorific)
}

func TestNewViewUnknownLocale(t *testing.T) {
	_, err := NewView(sampleInvoice(t, "Sample Corp"), DefaultIssuer(), Locale("fr"))
	require.ErrorIs(t, err, ErrRendering)
	require.Equal(t, CodeUnsupported, CodeOf(err))
}

func TestFormatAmount(t *testing.T) {
	p := message.NewPrinter(language.Japanese)
	cases := map[string]string{
		"1000":     "1,000",
		"999.99":   "999.99",
		"12345.5":  "12,345.5",
		"0":        "0",
		"-2500.25": "-2,500.25",
	}
	for in, want := range cases {
		require.Equal(t, want, formatAmount(p, decimal.RequireFromString(in)), in)
	}
}

func TestFormatRate(t *testing.T) {
	require.Equal(t, "30%", formatRate(decimal.RequireFromString("0.3")))
	require.Equal(t, "100%", formatRate(decimal.NewFromInt(1)))
	require.Equal(t, "0%", formatRate(decimal.Zero))
	require.Equal(t, "12%", formatRate(decimal.RequireFromString("0.125")))
}

func TestParseLocale(t *testing.T) {
	l, err := ParseLocale("")
	require.NoError(t, err)
	require.Equal(t, LocaleJA, l)

	l, err = ParseLocale(" EN ")
	require.NoError(t, err)
	require.Equal(t, LocaleEN, l)

	_, err = ParseLocale("de")
	require.ErrorIs(t, err, ErrRendering)
}
