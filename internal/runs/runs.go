// Package runs tracks analysis runs in memory: one run per uploaded batch,
// processed by a single worker so only one extraction call is ever in
// flight. A run's result replaces the previous one for that session and is
// lost on restart; the service deliberately persists nothing.
package runs

import (
	"time"

	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// Status is the lifecycle state of an analysis run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one analysis of an uploaded batch. FilesDone/FilesTotal expose
// per-file progress while the run is being processed.
type Run struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	FilesDone  int `json:"files_done"`
	FilesTotal int `json:"files_total"`

	// Error holds the human-readable failure message when Status is failed.
	Error string `json:"error,omitempty"`

	// Summary and Report are set together when the run completes.
	Summary *statement.AnalysisSummary `json:"summary,omitempty"`
	Report  []byte                     `json:"-"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
