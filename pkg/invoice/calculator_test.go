package invoice

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(count int, price, rate string) Params {
	return Params{
		StudentCount: count,
		UnitPrice:    decimal.RequireFromString(price),
		RefundRate:   decimal.RequireFromString(rate),
		CustomerName: "Sample Corp",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeTotalAmount(t *testing.T) {
	cases := []struct {
		name  string
		count int
		price string
		rate  string
		want  int64
	}{
		{"sample", 35, "1000", "0.3", 10500},
		{"fraction dropped", 7, "333", "0.37", 862},
		{"decimal price", 3, "999.99", "0.5", 1499},
		{"zero students", 0, "1000", "0.3", 0},
		{"zero price", 12, "0", "0.8", 0},
		{"zero rate", 35, "1000", "0", 0},
		{"full rate", 35, "1000", "1", 35000},
		{"full rate fractional price", 3, "10.7", "1", 32},
		{"largest representable total", 1, "9223372036854775807", "1", math.MaxInt64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := Compute(params(tc.count, tc.price, tc.rate), day(2025, time.July, 10))
			require.NoError(t, err)
			require.Equal(t, tc.want, inv.TotalAmount())
		})
	}
}

func TestComputeDueDateAnchoredOnFirstOfMonth(t *testing.T) {
	want := day(2025, time.August, 10)
	for d := 1; d <= 31; d++ {
		ref := time.Date(2025, time.July, d, 17, 45, 0, 0, time.UTC)
		inv, err := Compute(params(35, "1000", "0.3"), ref)
		require.NoError(t, err)
		require.True(t, want.Equal(inv.DueDate()), "day %d: got %s", d, inv.DueDate())
	}
}

func TestComputeDueDateFollowsMonthLength(t *testing.T) {
	cases := []struct {
		ref  time.Time
		want time.Time
	}{
		{day(2025, time.February, 20), day(2025, time.March, 13)},
		{day(2024, time.February, 20), day(2024, time.March, 12)},
		{day(2025, time.April, 30), day(2025, time.May, 11)},
		{day(2025, time.December, 5), day(2026, time.January, 10)},
	}
	for _, tc := range cases {
		inv, err := Compute(params(1, "1", "1"), tc.ref)
		require.NoError(t, err)
		assert.True(t, tc.want.Equal(inv.DueDate()), "ref %s: got %s", tc.ref, inv.DueDate())
	}
}

func TestComputeBillingMonthIgnoresDay(t *testing.T) {
	a, err := Compute(params(35, "1000", "0.3"), day(2025, time.July, 15))
	require.NoError(t, err)
	b, err := Compute(params(35, "1000", "0.3"), day(2025, time.July, 1))
	require.NoError(t, err)

	require.Equal(t, a.BillingMonth(), b.BillingMonth())
	require.Equal(t, "2025-07", a.BillingMonth().String())
}

func TestComputeIsDeterministic(t *testing.T) {
	ref := time.Date(2025, time.July, 10, 9, 0, 0, 0, time.UTC)
	a, err := Compute(params(35, "1000", "0.3"), ref)
	require.NoError(t, err)
	b, err := Compute(params(35, "1000", "0.3"), ref)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestComputeSampleInvoice(t *testing.T) {
	inv, err := Compute(params(35, "1000", "0.3"), day(2025, time.July, 10))
	require.NoError(t, err)

	require.Equal(t, "2025-07-10", inv.IssueDate().Format(time.DateOnly))
	require.Equal(t, "2025-07", inv.BillingMonth().String())
	require.Equal(t, "2025-08-10", inv.DueDate().Format(time.DateOnly))
	require.Equal(t, int64(10500), inv.TotalAmount())
	require.Equal(t, 35, inv.StudentCount())
	require.Equal(t, "Sample Corp", inv.CustomerName())
	require.True(t, inv.UnitPrice().Equal(decimal.NewFromInt(1000)))
	require.True(t, inv.RefundRate().Equal(decimal.RequireFromString("0.3")))
}

func TestComputeKeepsReferenceLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	ref := time.Date(2025, time.July, 31, 23, 30, 0, 0, tokyo)

	inv, err := Compute(params(35, "1000", "0.3"), ref)
	require.NoError(t, err)
	require.Equal(t, "2025-07-31", inv.IssueDate().Format(time.DateOnly))
	require.Equal(t, tokyo, inv.DueDate().Location())
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	p := Params{
		StudentCount: -1,
		UnitPrice:    decimal.NewFromInt(-5),
		RefundRate:   decimal.RequireFromString("1.5"),
		CustomerName: "   ",
	}
	_, err := Compute(p, day(2025, time.July, 10))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidInput))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"student_count", "unit_price", "refund_rate", "customer_name"} {
		assert.True(t, verr.HasField(field), field)
	}
}

func TestComputeRejectsNegativeRate(t *testing.T) {
	_, err := Compute(params(10, "100", "-0.1"), day(2025, time.July, 10))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeWithoutValidation(t *testing.T) {
	inv, err := Compute(params(-2, "1000", "0.3"), day(2025, time.July, 10), WithoutValidation())
	require.NoError(t, err)
	require.Equal(t, int64(-600), inv.TotalAmount())

	inv, err = Compute(params(3, "100", "1.5"), day(2025, time.July, 10), WithoutValidation())
	require.NoError(t, err)
	require.Equal(t, int64(450), inv.TotalAmount())
}

func TestComputeRejectsRateJustAboveOne(t *testing.T) {
	_, err := Compute(params(1, "1000000000000000000", "1.000000000000000001"), day(2025, time.July, 10))
	require.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []FieldError{{Field: "refund_rate", Rule: "lte", Param: "1", Value: "1.000000000000000001"}}, verr.Fields)
}

func TestComputeRejectsTotalOverflow(t *testing.T) {
	cases := []struct {
		name string
		p    Params
		opts []Option
	}{
		{"validated", params(35, "1000000000000000000", "1"), nil},
		{"lenient", params(35, "1000000000000000000", "1"), []Option{WithoutValidation()}},
		{"lenient negative", params(-35, "1000000000000000000", "1"), []Option{WithoutValidation()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.p, day(2025, time.July, 10), tc.opts...)
			require.ErrorIs(t, err, ErrInvalidInput)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.True(t, verr.HasField("total_amount"))
		})
	}
}

func TestTotalIsExact(t *testing.T) {
	total, err := Total(3, decimal.RequireFromString("0.1"), decimal.RequireFromString("1"))
	require.NoError(t, err)
	require.Equal(t, int64(0), total)

	total, err = Total(10, decimal.RequireFromString("0.1"), decimal.RequireFromString("1"))
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestFixedClock(t *testing.T) {
	ref := day(2025, time.July, 10)
	require.Equal(t, ref, FixedClock(ref).Now())
}
