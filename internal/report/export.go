// Package report serializes an analysis summary into the downloadable
// spreadsheet: one sheet listing every transaction, one sheet with the
// summary metrics.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

const (
	transactionsSheet = "Transações"
	summarySheet      = "Resumo"

	exportDateLayout = "02/01/2006"
)

// Export renders the summary as a two-sheet xlsx document and returns its
// bytes. It is a pure function of the summary; transactions keep their
// original order.
func Export(summary *statement.AnalysisSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, fmt.Errorf("report.Export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("report.Export: create summary sheet: %w", err)
	}

	if err := writeTransactions(f, summary.Transactions); err != nil {
		return nil, err
	}
	if err := writeSummary(f, summary); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report.Export: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTransactions(f *excelize.File, txs []statement.Transaction) error {
	headers := []interface{}{"Data", "Descrição", "Valor"}
	if err := f.SetSheetRow(transactionsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("report.Export: transaction header: %w", err)
	}

	for i, tx := range txs {
		row := []interface{}{formatDate(tx.Date), tx.Description, tx.Amount.InexactFloat64()}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("report.Export: transaction row %d: %w", i, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, summary *statement.AnalysisSummary) error {
	rows := [][]interface{}{
		{"Métrica", "Valor"},
		{"Total", FormatBRL(summary.Total)},
		{"Média Mensal", FormatBRL(summary.MonthlyAverage)},
		{"Meses", len(summary.Buckets)},
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		r := row
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return fmt.Errorf("report.Export: summary row %d: %w", i, err)
		}
	}
	return nil
}

// formatDate converts the stored YYYY-MM-DD date to dd/mm/yyyy. Dates were
// validated during aggregation; an unparseable value is written as-is
// rather than failing an otherwise complete export.
func formatDate(date string) string {
	d, err := time.Parse(statement.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(exportDateLayout)
}

// FormatBRL renders a decimal amount in Brazilian currency style:
// "R$ 3.500,00".
func FormatBRL(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
