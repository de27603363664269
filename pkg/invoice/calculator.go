package invoice

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Params holds the business inputs of a monthly invoice.
type Params struct {
	StudentCount int             `json:"student_count" validate:"gte=0"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"-"`
	RefundRate   decimal.Decimal `json:"refund_rate" validate:"-"`
	CustomerName string          `json:"customer_name" validate:"required,max=200"`
}

type options struct {
	skipValidation bool
}

// Option tweaks Compute.
type Option func(*options)

// WithoutValidation accepts any numeric input, including negative counts or
// rates above one. Only meant for reproducing historical invoices.
func WithoutValidation() Option {
	return func(o *options) { o.skipValidation = true }
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func paramsValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

var (
	decZero = decimal.Zero
	decOne  = decimal.NewFromInt(1)

	maxTotal = decimal.NewFromInt(math.MaxInt64)
	minTotal = decimal.NewFromInt(math.MinInt64)
)

// Validate checks the parameter ranges. Decimal fields are compared exactly
// rather than through float64.
func (p Params) Validate() error {
	var fields []FieldError
	if err := paramsValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field: fe.Field(),
				Rule:  fe.Tag(),
				Param: fe.Param(),
				Value: fe.Value(),
			})
		}
	}
	fields = append(fields, decimalRange("unit_price", p.UnitPrice, &decZero, nil)...)
	fields = append(fields, decimalRange("refund_rate", p.RefundRate, &decZero, &decOne)...)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// decimalRange checks d against inclusive bounds; a nil bound is open.
func decimalRange(field string, d decimal.Decimal, lo, hi *decimal.Decimal) []FieldError {
	switch {
	case lo != nil && d.LessThan(*lo):
		return []FieldError{{Field: field, Rule: "gte", Param: lo.String(), Value: d.String()}}
	case hi != nil && d.GreaterThan(*hi):
		return []FieldError{{Field: field, Rule: "lte", Param: hi.String(), Value: d.String()}}
	}
	return nil
}

// Compute builds the invoice for ref. The due date is always the first day
// of ref's month plus DueDateOffsetDays, and the total is the floor of
// StudentCount * UnitPrice * RefundRate.
func Compute(p Params, ref time.Time, opts ...Option) (Invoice, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p.CustomerName = strings.TrimSpace(p.CustomerName)
	if !o.skipValidation {
		if err := p.Validate(); err != nil {
			return Invoice{}, err
		}
	}

	total, err := Total(p.StudentCount, p.UnitPrice, p.RefundRate)
	if err != nil {
		return Invoice{}, err
	}

	loc := ref.Location()
	issue := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	month := MonthOf(issue)

	return Invoice{
		issueDate:    issue,
		billingMonth: month,
		dueDate:      month.FirstDay(loc).AddDate(0, 0, DueDateOffsetDays),
		studentCount: p.StudentCount,
		unitPrice:    p.UnitPrice,
		refundRate:   p.RefundRate,
		totalAmount:  total,
		customerName: p.CustomerName,
	}, nil
}

// Total returns count * price * rate in exact decimal arithmetic with the
// fractional part dropped, which is the floor for non-negative inputs.
// A product outside the int64 range is reported as invalid input.
func Total(count int, price, rate decimal.Decimal) (int64, error) {
	product := decimal.NewFromInt(int64(count)).Mul(price).Mul(rate).Truncate(0)
	if out := decimalRange("total_amount", product, &minTotal, &maxTotal); out != nil {
		return 0, &ValidationError{Fields: out}
	}
	return product.IntPart(), nil
}

// Clock supplies the reference date for callers that bill "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }
