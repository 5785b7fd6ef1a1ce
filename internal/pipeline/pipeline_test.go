package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/magalhaesnegocios/renda-pro/internal/logger"
	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// mockExtractor is a mock implementation of extract.Extractor.
type mockExtractor struct {
	ExtractFunc func(ctx context.Context, data []byte, declaredMIME string) (string, error)
	calls       int
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte, declaredMIME string) (string, error) {
	m.calls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, data, declaredMIME)
	}
	return `{"transacoes": []}`, nil
}

func testFiles(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = File{
			Name:     fmt.Sprintf("extrato-%d.pdf", i+1),
			MIMEType: "application/pdf",
			Data:     []byte("fake pdf bytes"),
		}
	}
	return files
}

func validationKind(t *testing.T, err error) statement.ValidationKind {
	t.Helper()
	var verr *statement.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *statement.ValidationError, got %T: %v", err, err)
	}
	return verr.Kind
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name     string
		files    []File
		wantKind statement.ValidationKind
	}{
		{"empty batch", nil, statement.ValidationNoFiles},
		{"one file", testFiles(1), ""},
		{"six files", testFiles(6), ""},
		{"seven files", testFiles(7), statement.ValidationTooMany},
		{
			"unsupported type",
			[]File{{Name: "extrato.gif", MIMEType: "image/gif"}},
			statement.ValidationUnsupportedType,
		},
		{
			"jpeg and png accepted",
			[]File{
				{Name: "a.jpg", MIMEType: "image/jpeg"},
				{Name: "b.jpg", MIMEType: "image/jpg"},
				{Name: "c.png", MIMEType: "image/png"},
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.files)
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("ValidateBatch() error = %v, want nil", err)
				}
				return
			}
			if got := validationKind(t, err); got != tt.wantKind {
				t.Errorf("kind = %s, want %s", got, tt.wantKind)
			}
		})
	}
}

func TestRunner_Run(t *testing.T) {
	responses := map[string]string{
		"extrato-1.pdf": `{"transacoes": [{"data": "2024-01-15", "descricao": "Salário", "valor": 3000.00}]}`,
		"extrato-2.pdf": "```json\n" + `{"transacoes": [{"data": "2024-02-10", "descricao": "Venda", "valor": 500.00}]}` + "\n```",
	}

	files := testFiles(2)
	calls := 0
	mock := &mockExtractor{
		ExtractFunc: func(ctx context.Context, data []byte, declaredMIME string) (string, error) {
			calls++
			return responses[files[calls-1].Name], nil
		},
	}

	runner := NewRunner(mock, logger.New("disabled", false))
	summary, err := runner.Run(context.Background(), files, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := summary.Total.String(); got != "3500" {
		t.Errorf("Total = %s, want 3500", got)
	}
	if got := summary.MonthlyAverage.String(); got != "1750" {
		t.Errorf("MonthlyAverage = %s, want 1750", got)
	}
	if len(summary.Buckets) != 2 {
		t.Errorf("got %d buckets, want 2", len(summary.Buckets))
	}
	if len(summary.Transactions) != 2 {
		t.Errorf("got %d transactions, want 2", len(summary.Transactions))
	}
}

func TestRunner_Run_ProgressCallback(t *testing.T) {
	var starts [][2]int
	mock := &mockExtractor{
		ExtractFunc: func(ctx context.Context, data []byte, declaredMIME string) (string, error) {
			return `{"transacoes": [{"data": "2024-01-01", "descricao": "x", "valor": 1.00}]}`, nil
		},
	}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(context.Background(), testFiles(3), func(index, total int) {
		starts = append(starts, [2]int{index, total})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][2]int{{0, 3}, {1, 3}, {2, 3}}
	if len(starts) != len(want) {
		t.Fatalf("got %d progress calls, want %d", len(starts), len(want))
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("progress call %d = %v, want %v", i, starts[i], want[i])
		}
	}
}

func TestRunner_Run_AbortsOnExtractionFailure(t *testing.T) {
	mock := &mockExtractor{
		ExtractFunc: func(ctx context.Context, data []byte, declaredMIME string) (string, error) {
			return "", &statement.ServiceError{Kind: statement.ServiceRateLimit, Err: errors.New("quota exhausted")}
		},
	}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(context.Background(), testFiles(3), nil)

	var serr *statement.ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *statement.ServiceError, got %T: %v", err, err)
	}
	if serr.Kind != statement.ServiceRateLimit {
		t.Errorf("kind = %s, want %s", serr.Kind, statement.ServiceRateLimit)
	}
	// The first failure aborts the batch: no further extraction calls, no
	// further cost.
	if mock.calls != 1 {
		t.Errorf("extractor called %d times, want 1", mock.calls)
	}
}

func TestRunner_Run_AbortsOnParseFailure(t *testing.T) {
	mock := &mockExtractor{
		ExtractFunc: func(ctx context.Context, data []byte, declaredMIME string) (string, error) {
			return "the model rambled instead of answering", nil
		},
	}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(context.Background(), testFiles(2), nil)

	var perr *statement.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *statement.ParseError, got %T: %v", err, err)
	}
	if mock.calls != 1 {
		t.Errorf("extractor called %d times, want 1", mock.calls)
	}
}

func TestRunner_Run_EmptyStatementsFailAggregation(t *testing.T) {
	// Every file parses fine but yields nothing; the caller must not be
	// shown a summary with zero data.
	mock := &mockExtractor{}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(context.Background(), testFiles(2), nil)

	var aerr *statement.AggregationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *statement.AggregationError, got %T: %v", err, err)
	}
	if aerr.Kind != statement.AggregationNoTransactions {
		t.Errorf("kind = %s, want %s", aerr.Kind, statement.AggregationNoTransactions)
	}
	if mock.calls != 2 {
		t.Errorf("extractor called %d times, want 2", mock.calls)
	}
}

func TestRunner_Run_ValidationBeforeExtraction(t *testing.T) {
	mock := &mockExtractor{}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(context.Background(), testFiles(7), nil)

	if got := validationKind(t, err); got != statement.ValidationTooMany {
		t.Errorf("kind = %s, want %s", got, statement.ValidationTooMany)
	}
	if mock.calls != 0 {
		t.Errorf("extractor called %d times before validation, want 0", mock.calls)
	}
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockExtractor{
		ExtractFunc: func(ctx context.Context, data []byte, declaredMIME string) (string, error) {
			// Cancel after the first file; the second must not start.
			cancel()
			return `{"transacoes": [{"data": "2024-01-01", "descricao": "x", "valor": 1.00}]}`, nil
		},
	}

	runner := NewRunner(mock, logger.New("disabled", false))
	_, err := runner.Run(ctx, testFiles(3), nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("extractor called %d times, want 1", mock.calls)
	}
}
