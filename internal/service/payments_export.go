package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/smartstay/internal/model"
)

const paymentsSheet = "Payments"

var paymentsExportHeader = []string{
	"Receipt Number",
	"Student ID",
	"Student Name",
	"Type",
	"Method",
	"Amount",
	"Paid At",
	"Request ID",
	"Remarks",
}

var paymentsColumnWidths = []float64{24, 18, 24, 18, 10, 12, 20, 12, 40}

// ExportPayments renders payments with paid_at in [from, to) as an xlsx
// workbook.  An empty range yields a workbook with only the header row.
func (s *FinanceService) ExportPayments(ctx context.Context, from, to time.Time) ([]byte, error) {
	if !to.After(from) {
		return nil, &model.ValidationError{Field: "to", Message: "to must be after from"}
	}
	rows, err := s.payments.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return RenderPaymentsXLSX(rows)
}

// RenderPaymentsXLSX writes payments into a single-sheet workbook with a
// frozen, bold header row.  Amounts are stored as numbers.
func RenderPaymentsXLSX(payments []*model.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(paymentsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range paymentsExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(paymentsSheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(paymentsSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(paymentsSheet, col, col, paymentsColumnWidths[i]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for r, p := range payments {
		amount, err := strconv.ParseFloat(p.Amount, 64)
		if err != nil {
			return nil, fmt.Errorf("payment %d amount %q: %w", p.ID, p.Amount, err)
		}
		var requestID any
		if p.RequestID != nil {
			requestID = *p.RequestID
		}
		remarks := ""
		if p.Remarks != nil {
			remarks = *p.Remarks
		}
		values := []any{
			p.ReceiptNumber,
			p.StudentID,
			p.StudentName,
			p.Type,
			p.Method,
			amount,
			p.PaidAt.UTC().Format("2006-01-02 15:04:05"),
			requestID,
			remarks,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(paymentsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(paymentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
