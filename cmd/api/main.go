package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/magalhaesnegocios/renda-pro/internal/api/handlers"
	"github.com/magalhaesnegocios/renda-pro/internal/api/middleware"
	"github.com/magalhaesnegocios/renda-pro/internal/config"
	"github.com/magalhaesnegocios/renda-pro/internal/extract"
	"github.com/magalhaesnegocios/renda-pro/internal/logger"
	"github.com/magalhaesnegocios/renda-pro/internal/pipeline"
	"github.com/magalhaesnegocios/renda-pro/internal/report"
	"github.com/magalhaesnegocios/renda-pro/internal/runs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", true)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	ctx := context.Background()

	extractor, err := extract.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.ExtractionModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction client")
	}

	runner := pipeline.NewRunner(extractor, log)

	runStore := runs.NewStore()
	runQueue := runs.NewQueue(16, runStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// The worker owns the full run: extract every file sequentially,
	// aggregate, render the report. One failure fails the run; nothing is
	// retried.
	runHandler := func(ctx context.Context, run *runs.Run, files []pipeline.File) error {
		summary, err := runner.Run(ctx, files, func(index, total int) {
			runStore.SetProgress(run.ID, index, total)
		})
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Analysis run failed")
			return err
		}

		reportBytes, err := report.Export(summary)
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Report export failed")
			return err
		}

		run.Summary = summary
		run.Report = reportBytes

		log.Info().
			Str("run_id", run.ID).
			Str("total", summary.Total.String()).
			Int("months", len(summary.Buckets)).
			Msg("Analysis run completed")
		return nil
	}

	if err := runQueue.Start(workerCtx, runHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start run worker")
	}

	analysesHandler := handlers.NewAnalysesHandler(runQueue, runStore, cfg.MaxUploadBytes, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysesHandler.CreateAnalysis(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Analysis ID is required")
			return
		}
		if runID, ok := strings.CutSuffix(rest, "/report"); ok {
			analysesHandler.DownloadReport(w, r, runID)
			return
		}
		analysesHandler.GetAnalysis(w, r, rest)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.RequestID(log)(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := runQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Run worker shutdown failed")
	}
}
