// Package pipeline drives one analysis run: it validates a batch of
// uploaded statements, sends each file through the extraction backend in
// sequence, parses every response, and aggregates the accumulated
// transactions into a summary.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/magalhaesnegocios/renda-pro/internal/analyze"
	"github.com/magalhaesnegocios/renda-pro/internal/extract"
	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// MaxFiles is the largest batch one run accepts.
const MaxFiles = 6

// acceptedMIMETypes are the declared types the validator lets through.
var acceptedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// File is one uploaded statement as received from the caller.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ProgressFunc is notified before each file's extraction starts. index is
// zero-based; total is the batch size. It decouples progress display from
// the pipeline so the core stays testable without any UI.
type ProgressFunc func(index, total int)

// ValidateBatch checks the batch constraints before any extraction call is
// made, so an invalid batch never incurs backend cost. It is a pure check.
func ValidateBatch(files []File) error {
	if len(files) == 0 {
		return &statement.ValidationError{Kind: statement.ValidationNoFiles}
	}
	if len(files) > MaxFiles {
		return &statement.ValidationError{
			Kind:   statement.ValidationTooMany,
			Detail: fmt.Sprintf("%d files, maximum is %d", len(files), MaxFiles),
		}
	}
	for _, f := range files {
		if !acceptedMIMETypes[f.MIMEType] {
			return &statement.ValidationError{
				Kind:   statement.ValidationUnsupportedType,
				Detail: fmt.Sprintf("file %q has type %q", f.Name, f.MIMEType),
			}
		}
	}
	return nil
}

// Runner executes analysis runs. It holds no per-run state; every Run call
// is independent.
type Runner struct {
	extractor extract.Extractor
	log       zerolog.Logger
}

// NewRunner creates a pipeline runner on top of the given extractor.
func NewRunner(extractor extract.Extractor, log zerolog.Logger) *Runner {
	return &Runner{extractor: extractor, log: log}
}

// Run analyzes a batch of statements and returns the summary.
//
// Files are processed strictly one at a time: each extraction call costs
// money and draws on a shared per-minute quota, so parallel dispatch is
// deliberately avoided. The first extraction or parse failure aborts the
// whole run; a partially analyzed batch would misstate the income it is
// meant to document. Cancelling the context abandons the remaining files.
func (r *Runner) Run(ctx context.Context, files []File, onFileStart ProgressFunc) (*statement.AnalysisSummary, error) {
	if err := ValidateBatch(files); err != nil {
		return nil, err
	}

	var txs []statement.Transaction
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline: run cancelled before file %d of %d: %w", i+1, len(files), err)
		}
		if onFileStart != nil {
			onFileStart(i, len(files))
		}

		r.log.Info().
			Str("file", f.Name).
			Str("mime_type", f.MIMEType).
			Int("index", i+1).
			Int("total", len(files)).
			Msg("Extracting statement")

		raw, err := r.extractor.Extract(ctx, f.Data, f.MIMEType)
		if err != nil {
			return nil, fmt.Errorf("pipeline: file %q: %w", f.Name, err)
		}

		parsed, err := extract.ParseTransactions(raw)
		if err != nil {
			return nil, fmt.Errorf("pipeline: file %q: %w", f.Name, err)
		}

		r.log.Debug().
			Str("file", f.Name).
			Int("transactions", len(parsed)).
			Msg("Statement parsed")

		txs = append(txs, parsed...)
	}

	summary, err := analyze.Aggregate(txs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	r.log.Info().
		Int("transactions", len(summary.Transactions)).
		Int("months", len(summary.Buckets)).
		Str("total", summary.Total.String()).
		Msg("Analysis completed")

	return summary, nil
}
