// pkg/invoice/invoice.go

package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateOffsetDays is the number of days added to the first day of the
// billing month to obtain the payment due date.
const DueDateOffsetDays = 40

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns midnight of the first day of the month in loc.
func (m Month) FirstDay(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Invoice is the computed monthly invoice. It is only built by Compute and
// exposes read-only accessors.
type Invoice struct {
	issueDate    time.Time
	billingMonth Month
	dueDate      time.Time
	studentCount int
	unitPrice    decimal.Decimal
	refundRate   decimal.Decimal
	totalAmount  int64
	customerName string
}

// IssueDate is the date the invoice is issued.
func (i Invoice) IssueDate() time.Time { return i.issueDate }

// BillingMonth is the month the invoice bills for.
func (i Invoice) BillingMonth() Month { return i.billingMonth }

// DueDate is the payment deadline.
func (i Invoice) DueDate() time.Time { return i.dueDate }

// StudentCount is the number of registered students.
func (i Invoice) StudentCount() int { return i.studentCount }

// UnitPrice is the price per student.
func (i Invoice) UnitPrice() decimal.Decimal { return i.unitPrice }

// RefundRate is the fraction of the gross amount that is billed.
func (i Invoice) RefundRate() decimal.Decimal { return i.refundRate }

// TotalAmount is the billed amount in whole currency units.
func (i Invoice) TotalAmount() int64 { return i.totalAmount }

// CustomerName is the billed party.
func (i Invoice) CustomerName() string { return i.customerName }
