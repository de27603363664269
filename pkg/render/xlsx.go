package render

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxSummarySheet = "summary"
	xlsxItemsSheet   = "items"
)

// BuildXLSX renders the view as a workbook with a summary sheet and an
// items sheet. Amounts are written as numbers so the items stay usable for
// reconciliation.
func BuildXLSX(v View) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", xlsxSummarySheet); err != nil {
		return nil, NewError(CodeRenderFailed, "xlsx sheet", err)
	}
	if _, err := f.NewSheet(xlsxItemsSheet); err != nil {
		return nil, NewError(CodeRenderFailed, "xlsx sheet", err)
	}

	inv := v.Invoice
	summary := [][]any{
		{v.Labels.Title, v.BillingMonth},
		{v.Labels.IssueDate, v.IssueDate},
		{v.Labels.BillTo, v.CustomerName},
		{v.Labels.Total, inv.TotalAmount()},
		{v.Labels.DueDate, v.DueDate},
		{v.Labels.BankAccount, v.Issuer.BankAccount},
		{v.Labels.Contact, v.Issuer.ContactEmail},
	}
	items := [][]any{
		{v.Labels.StudentCount, v.Labels.UnitPrice, v.Labels.RefundRate, v.Labels.Total},
		{inv.StudentCount(), inv.UnitPrice().InexactFloat64(), inv.RefundRate().InexactFloat64(), inv.TotalAmount()},
	}
	if err := writeRows(f, xlsxSummarySheet, summary); err != nil {
		return nil, err
	}
	if err := writeRows(f, xlsxItemsSheet, items); err != nil {
		return nil, err
	}

	if style, err := f.NewStyle(&excelize.Style{NumFmt: 9}); err == nil {
		_ = f.SetCellStyle(xlsxItemsSheet, "C2", "C2", style)
	}
	_ = f.SetColWidth(xlsxSummarySheet, "A", "A", 18)
	_ = f.SetColWidth(xlsxSummarySheet, "B", "B", 48)
	_ = f.SetColWidth(xlsxItemsSheet, "A", "D", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, NewError(CodeRenderFailed, "xlsx output", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return NewError(CodeRenderFailed, "xlsx cell", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return NewError(CodeRenderFailed, fmt.Sprintf("xlsx row %s!%s", sheet, cell), err)
		}
	}
	return nil
}
