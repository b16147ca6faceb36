// Package export renders credits into spreadsheet statements.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/schedule"
)

const (
	SheetName   = "Statement"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// first schedule row; rows above carry the credit summary
	scheduleHeaderRow = 10
)

// WriteStatement writes an xlsx repayment statement for c to w.
func WriteStatement(w io.Writer, c *credit.Credit, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	installment := ""
	if amt, err := schedule.Installment(c.Terms.Principal, c.Terms.InterestRate, schedule.Periods(c.Terms)); err == nil {
		installment = amt.StringFixed(2)
	}

	summary := [][]any{
		{"Credit", c.CreditID},
		{"Lender", c.LenderID},
		{"Borrower", c.BorrowerID},
		{"Principal", c.Terms.Principal},
		{"Interest rate (%)", c.Terms.InterestRate},
		{"Term", fmt.Sprintf("%d %s, %s %s", c.Terms.LoanTerm, c.Terms.TimeUnit, c.Terms.PaymentType, c.Terms.EMIFrequency)},
		{"Installment", installment},
		{"Status", string(c.Status)},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	header := []any{"#", "Due date", "Status"}
	hcell, _ := excelize.CoordinatesToCellName(1, scheduleHeaderRow)
	if err := f.SetSheetRow(SheetName, hcell, &header); err != nil {
		return err
	}
	hend, _ := excelize.CoordinatesToCellName(len(header), scheduleHeaderRow)
	if err := f.SetCellStyle(SheetName, hcell, hend, bold); err != nil {
		return err
	}

	for i, e := range c.DueDates.Entries() {
		row := []any{i + 1, e.Date, string(e.Status)}
		cell, _ := excelize.CoordinatesToCellName(1, scheduleHeaderRow+1+i)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 20); err != nil {
		return err
	}

	return f.Write(w)
}

// FileName is the download name offered for c's statement.
func FileName(c *credit.Credit) string { return "statement-" + c.CreditID + ".xlsx" }
