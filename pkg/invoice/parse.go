package invoice

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseParams converts textual inputs, as received from flags or forms.
// Malformed numbers are reported as a ValidationError.
func ParseParams(students, unitPrice, refundRate, customer string) (Params, error) {
	var (
		p    = Params{CustomerName: customer}
		errs []FieldError
		err  error
	)
	if p.StudentCount, err = strconv.Atoi(strings.TrimSpace(students)); err != nil {
		errs = append(errs, FieldError{Field: "student_count", Rule: "number", Value: students})
	}
	if p.UnitPrice, err = decimal.NewFromString(strings.TrimSpace(unitPrice)); err != nil {
		errs = append(errs, FieldError{Field: "unit_price", Rule: "number", Value: unitPrice})
	}
	if p.RefundRate, err = parseRate(refundRate); err != nil {
		errs = append(errs, FieldError{Field: "refund_rate", Rule: "number", Value: refundRate})
	}
	if len(errs) > 0 {
		return Params{}, &ValidationError{Fields: errs}
	}
	return p, nil
}

// parseRate accepts "0.3" as well as "30%".
func parseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return decimal.Decimal{}, err
		}
		return d.Div(decimal.NewFromInt(100)), nil
	}
	return decimal.NewFromString(s)
}
