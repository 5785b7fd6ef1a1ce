// Package analyze turns a batch of extracted transactions into the monthly
// summary shown to the user: per-month totals, a grand total, and the
// average across the months present in the data.
package analyze

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// monthNames holds the pt-BR month names used for bucket labels. Labels
// are presentation only; the bucket key stays locale independent.
var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

type monthKey struct {
	year  int
	month time.Month
}

// Aggregate groups transactions by calendar month and computes the totals
// for one analysis run. All money arithmetic is exact decimal; nothing is
// accumulated in floating point.
//
// The monthly average is the mean over the buckets actually present: a
// statement spanning a gap does not pull a zero month into the
// denominator. It is rounded to two places, so it matches total/buckets
// within one minor unit.
func Aggregate(txs []statement.Transaction) (*statement.AnalysisSummary, error) {
	if len(txs) == 0 {
		return nil, &statement.AggregationError{Kind: statement.AggregationNoTransactions}
	}

	totals := make(map[monthKey]decimal.Decimal)
	total := decimal.Zero

	for i, tx := range txs {
		date, err := time.Parse(statement.DateLayout, tx.Date)
		if err != nil {
			// A bad date fails the whole run; silently dropping a
			// transaction would understate the reported income.
			return nil, &statement.AggregationError{
				Kind:   statement.AggregationInvalidDate,
				Detail: fmt.Sprintf("transaction %d: date %q", i, tx.Date),
			}
		}

		key := monthKey{year: date.Year(), month: date.Month()}
		totals[key] = totals[key].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	keys := make([]monthKey, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	buckets := make([]statement.MonthlyBucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, statement.MonthlyBucket{
			Year:  key.year,
			Month: key.month,
			Label: fmt.Sprintf("%s/%d", monthNames[key.month-1], key.year),
			Total: totals[key],
		})
	}

	average := total.DivRound(decimal.NewFromInt(int64(len(buckets))), 2)

	return &statement.AnalysisSummary{
		Total:          total,
		MonthlyAverage: average,
		Buckets:        buckets,
		Transactions:   txs,
	}, nil
}
