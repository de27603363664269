package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

const nativeFontFamily = "invoice"

// NativePDF draws the invoice view directly with gofpdf, without HTML or a
// browser. Japanese labels need a UTF-8 TrueType font; the built-in
// Helvetica only covers Western European text.
type NativePDF struct {
	fontPath string
}

// NewNativePDF returns a native engine. fontPath may be empty.
func NewNativePDF(fontPath string) *NativePDF {
	return &NativePDF{fontPath: fontPath}
}

// RenderPDF lays out src.View on a single A4 page.
func (n *NativePDF) RenderPDF(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(CodeRenderTimeout, "native rendering cancelled", err)
	}
	v := src.View
	if n.fontPath == "" && v.Locale == LocaleJA {
		return nil, NewError(CodeUnsupported, "gofpdf engine needs a UTF-8 font for the ja locale", nil)
	}

	fontDir := ""
	if n.fontPath != "" {
		if _, err := os.Stat(n.fontPath); err != nil {
			return nil, NewError(CodeRenderFailed, "load font", err)
		}
		fontDir = filepath.Dir(n.fontPath)
	}

	// gofpdf resolves font files relative to the directory given here.
	pdf := gofpdf.New("P", "mm", "A4", fontDir)
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(v.Labels.Title+" "+v.BillingMonth, true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if n.fontPath != "" {
		pdf.AddUTF8Font(nativeFontFamily, "", filepath.Base(n.fontPath))
		family = nativeFontFamily
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetFont(family, "", 20)
	pdf.CellFormat(0, 12, tr(v.Labels.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	line := func(s string) {
		pdf.MultiCell(0, 7, tr(s), "", "L", false)
	}
	line(v.Labels.IssueDate + ": " + v.IssueDate)
	billTo := v.Labels.BillTo + ": " + v.CustomerName
	if v.Labels.Honorific != "" {
		billTo += " " + v.Labels.Honorific
	}
	line(billTo)
	pdf.Ln(3)
	line(v.Intro)
	pdf.Ln(3)

	// Items table
	widths := []float64{45, 45, 45, 45}
	header := []string{v.Labels.StudentCount, v.Labels.UnitPrice, v.Labels.RefundRate, v.Labels.Total}
	row := []string{v.StudentCount, v.UnitPrice, v.RefundRate, v.TotalAmount}
	pdf.SetFillColor(240, 240, 240)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	for i, cell := range row {
		pdf.CellFormat(widths[i], 8, tr(cell), "1", 0, "R", false, 0, "")
	}
	pdf.Ln(12)

	line(v.Labels.DueDate + ": " + v.DueDate)
	if v.Issuer.BankAccount != "" {
		line(v.Labels.BankAccount + ": " + v.Issuer.BankAccount)
	}
	if v.Issuer.Note != "" {
		line(v.Issuer.Note)
	}
	pdf.Ln(4)
	x, y := pdf.GetXY()
	pdf.Line(x, y, 195, y)
	pdf.Ln(3)
	if v.Issuer.ContactEmail != "" {
		line(v.Labels.Contact + ": " + v.Issuer.ContactEmail)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewError(CodeRenderFailed, "gofpdf output", err)
	}
	return buf.Bytes(), nil
}

var _ PDFEngine = (*NativePDF)(nil)
