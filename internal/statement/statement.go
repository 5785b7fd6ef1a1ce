// Package statement defines the domain model shared by the extraction,
// aggregation and reporting layers: individual credit transactions pulled
// out of a bank statement, monthly totals derived from them, and the
// summary produced by one analysis run.
package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for transaction dates as requested from the
// extraction backend.
const DateLayout = "2006-01-02"

// Transaction is a single incoming-funds entry extracted from a statement.
// Amount is strictly positive with at most two fractional digits; both
// invariants are enforced when the extraction response is parsed.
// Transactions are immutable once created.
type Transaction struct {
	// Date is kept as the extracted YYYY-MM-DD string; it is parsed into a
	// calendar date at aggregation time so a bad date fails loudly there
	// instead of being silently dropped.
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// MonthlyBucket is the total of all transactions falling in one calendar
// month. Year/Month form the locale-independent key; Label carries the
// pt-BR display name ("Janeiro/2024") and exists for presentation only.
type MonthlyBucket struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// AnalysisSummary is the sole result of one analysis run. It is replaced
// wholesale on each run and never mutated incrementally.
type AnalysisSummary struct {
	Total          decimal.Decimal `json:"total"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
	// Buckets are sorted chronologically ascending, one per distinct month
	// present in the data.
	Buckets []MonthlyBucket `json:"buckets"`
	// Transactions preserves the original extraction order across files.
	Transactions []Transaction `json:"transactions"`
}
