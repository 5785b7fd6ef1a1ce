// Package handlers implements the HTTP endpoints of the statement
// analyzer: upload a batch, poll its progress, download the report.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/magalhaesnegocios/renda-pro/internal/api/middleware"
	"github.com/magalhaesnegocios/renda-pro/internal/logger"
	"github.com/magalhaesnegocios/renda-pro/internal/pipeline"
	"github.com/magalhaesnegocios/renda-pro/internal/runs"
	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// multipartField is the form field carrying the statement files.
const multipartField = "files"

// AnalysesHandler handles analysis-related endpoints.
type AnalysesHandler struct {
	queue          *runs.Queue
	store          *runs.Store
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(queue *runs.Queue, store *runs.Store, maxUploadBytes int64, log zerolog.Logger) *AnalysesHandler {
	return &AnalysesHandler{
		queue:          queue,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// requestLog returns the request-scoped logger installed by the RequestID
// middleware, so handler entries carry the request ID of the access log.
// Without the middleware (tests call handlers directly) it falls back to
// the handler's own logger.
func (h *AnalysesHandler) requestLog(r *http.Request) zerolog.Logger {
	if middleware.RequestIDFrom(r.Context()) != "" {
		return logger.FromContext(r.Context())
	}
	return h.log
}

// CreateAnalysis handles POST /api/analyses. It accepts a multipart upload
// of up to six statements, validates the batch before anything else, and
// enqueues a run. The response is 202 with the run ID; the caller polls
// GetAnalysis for progress and the result.
func (h *AnalysesHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn().Err(err).Msg("Failed to parse multipart form")
		middleware.WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload too large or malformed (max %d MB)", h.maxUploadBytes/(1024*1024)))
		return
	}

	headers := r.MultipartForm.File[multipartField]
	files := make([]pipeline.File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to open uploaded file")
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Could not read file %q", fh.Filename))
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Could not read file %q", fh.Filename))
			return
		}

		files = append(files, pipeline.File{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	// Reject a bad batch here, before it occupies the worker. The runner
	// validates again; this keeps the error synchronous for the caller.
	if err := pipeline.ValidateBatch(files); err != nil {
		var verr *statement.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteError(w, http.StatusBadRequest, verr.Error())
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid batch")
		return
	}

	runID, err := h.queue.Enqueue(r.Context(), files)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue analysis run")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Could not accept the analysis right now")
		return
	}

	log.Info().
		Str("run_id", runID).
		Int("files", len(files)).
		Msg("Analysis run enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"analysis_id": runID,
		"status":      string(runs.StatusPending),
	})
}

// GetAnalysis handles GET /api/analyses/{id}. While the run is processing
// it reports per-file progress; once completed it carries the summary.
func (h *AnalysesHandler) GetAnalysis(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, run)
}

// DownloadReport handles GET /api/analyses/{id}/report. Only completed
// runs have a report.
func (h *AnalysesHandler) DownloadReport(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if run.Status != runs.StatusCompleted || len(run.Report) == 0 {
		middleware.WriteError(w, http.StatusConflict,
			fmt.Sprintf("Analysis is %s; the report is only available once it completes", run.Status))
		return
	}

	filename := fmt.Sprintf("relatorio_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(run.Report); err != nil {
		log := h.requestLog(r)
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to write report body")
	}
}
