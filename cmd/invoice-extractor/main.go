package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/logging"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := logging.New("invoice-extractor", cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("invoice-extractor")
	proc, reg, err := app.NewProcessor(ctx, cfg, logger, pipeline.WithObserver(m))
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	st, err := app.OpenStore(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	var (
		store    repository.Store
		exporter *export.Service
		saver    pipeline.RecordSaver
	)
	if st != nil {
		defer st.Close()
		store, saver = st.Store, st.Store
		exporter = export.NewService(st.Store, logger)
	}

	runner := pipeline.NewDocumentRunner(ocr.NewExtractor(app.OCRConfig(cfg.OCR), logger), proc, saver, logger)
	runner.OCRObs = m

	srv := server.New(server.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		BatchWorkers:   cfg.Server.BatchWorkers,
	}, server.Deps{
		Runner:    runner,
		Store:     store,
		Exporter:  exporter,
		Templates: reg.IDs(),
		Metrics:   m,
	}, logger)

	logger.Info("invoice-extractor starting",
		"addr", cfg.Server.HTTPAddr,
		"llm_provider", cfg.LLM.Provider,
		"ocr_mode", cfg.OCR.Mode,
		"persistence", st != nil,
	)
	if err := srv.ListenAndServe(ctx, cfg.Server.HTTPAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
