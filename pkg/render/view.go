package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
)

// Locale selects the labels and date conventions of a document.
type Locale string

const (
	LocaleJA Locale = "ja"
	LocaleEN Locale = "en"
)

// ParseLocale validates a locale name. Empty means Japanese.
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case "", LocaleJA:
		return LocaleJA, nil
	case LocaleEN:
		return LocaleEN, nil
	}
	return "", NewError(CodeUnsupported, fmt.Sprintf("unsupported locale %q", s), nil)
}

// Issuer describes the party sending the invoice.
type Issuer struct {
	BankAccount    string `yaml:"bank_account"`
	ContactEmail   string `yaml:"contact_email"`
	CurrencySymbol string `yaml:"currency_symbol"`
	Note           string `yaml:"note"`
}

// DefaultIssuer returns the issuer block printed when no profile is configured.
func DefaultIssuer() Issuer {
	return Issuer{
		BankAccount:    "みずほ銀行 ◯◯支店 普通 1234567 サイエンスドリーム",
		ContactEmail:   "support@example.com",
		CurrencySymbol: "¥",
	}
}

// Labels holds the fixed wording of a document.
type Labels struct {
	Title        string
	IssueDate    string
	BillTo       string
	Honorific    string
	Intro        string
	StudentCount string
	StudentUnit  string
	UnitPrice    string
	RefundRate   string
	Total        string
	DueDate      string
	BankAccount  string
	Contact      string
}

type convention struct {
	tag         language.Tag
	dateLayout  string
	monthLayout string
	labels      Labels
}

var conventions = map[Locale]convention{
	LocaleJA: {
		tag:         language.Japanese,
		dateLayout:  "2006年01月02日",
		monthLayout: "2006年01月",
		labels: Labels{
			Title:        "請求書",
			IssueDate:    "発行日",
			BillTo:       "請求先",
			Honorific:    "様",
			Intro:        "当月（%s）の登録学生数に基づき、以下の通りご請求申し上げます。",
			StudentCount: "学生数",
			StudentUnit:  "名",
			UnitPrice:    "単価",
			RefundRate:   "還元率",
			Total:        "合計",
			DueDate:      "お支払期限",
			BankAccount:  "振込先",
			Contact:      "お問い合わせ",
		},
	},
	LocaleEN: {
		tag:         language.English,
		dateLayout:  "2006-01-02",
		monthLayout: "January 2006",
		labels: Labels{
			Title:        "Invoice",
			IssueDate:    "Issue date",
			BillTo:       "Bill to",
			Intro:        "Based on the number of students registered in %s, we invoice you as follows.",
			StudentCount: "Students",
			UnitPrice:    "Unit price",
			RefundRate:   "Refund rate",
			Total:        "Total",
			DueDate:      "Payment due",
			BankAccount:  "Bank account",
			Contact:      "Contact",
		},
	},
}

// View is an invoice projected into display strings.
type View struct {
	Locale       Locale
	Labels       Labels
	Issuer       Issuer
	IssueDate    string
	BillingMonth string
	DueDate      string
	CustomerName string
	StudentCount string
	UnitPrice    string
	RefundRate   string
	TotalAmount  string
	Intro        string

	Invoice invoice.Invoice
}

// NewView formats inv for locale.
func NewView(inv invoice.Invoice, issuer Issuer, locale Locale) (View, error) {
	conv, ok := conventions[locale]
	if !ok {
		return View{}, NewError(CodeUnsupported, fmt.Sprintf("unsupported locale %q", locale), nil)
	}
	if issuer.CurrencySymbol == "" {
		issuer.CurrencySymbol = DefaultIssuer().CurrencySymbol
	}
	p := message.NewPrinter(conv.tag)
	month := inv.BillingMonth().FirstDay(time.UTC).Format(conv.monthLayout)

	return View{
		Locale:       locale,
		Labels:       conv.labels,
		Issuer:       issuer,
		IssueDate:    inv.IssueDate().Format(conv.dateLayout),
		BillingMonth: month,
		DueDate:      inv.DueDate().Format(conv.dateLayout),
		CustomerName: inv.CustomerName(),
		StudentCount: p.Sprintf("%d", inv.StudentCount()) + conv.labels.StudentUnit,
		UnitPrice:    issuer.CurrencySymbol + formatAmount(p, inv.UnitPrice()),
		RefundRate:   formatRate(inv.RefundRate()),
		TotalAmount:  issuer.CurrencySymbol + p.Sprintf("%d", inv.TotalAmount()),
		Intro:        fmt.Sprintf(conv.labels.Intro, month),
		Invoice:      inv,
	}, nil
}

// formatAmount groups the integer digits and keeps any fractional digits.
func formatAmount(p *message.Printer, d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	out := sign + p.Sprintf("%d", whole.IntPart())
	if frac := d.Sub(whole); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

// formatRate prints a fraction as a whole percentage, rounding half to even.
func formatRate(rate decimal.Decimal) string {
	return rate.Shift(2).RoundBank(0).String() + "%"
}
