package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/logging"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type summary struct {
	mu        sync.Mutex
	processed int
	failures  int
	byMethod  map[string]int
}

func (s *summary) record(o async.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Err != nil {
		s.failures++
		return
	}
	s.processed++
	s.byMethod[o.Document.Method().String()]++
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process invoices from (required)")
		out     = flag.String("out", "", "output XLSX file path (defaults to <dir>/../invoices.xlsx)")
		workers = flag.Int("workers", 4, "concurrent documents")
		inmem   = flag.Bool("inmem", false, "use an in-memory SQLite database")
		sqlite  = flag.String("sqlite", "", "SQLite file to store results in (default: in-memory)")
		docType = flag.String("doc-type", "invoice", "document type passed to the model prompt")
		watch   = flag.Bool("watch", false, "keep running and process files as they appear")
		timeout = flag.Duration("timeout", 3*time.Minute, "per-document timeout")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
	}

	cfg := common.LoadConfig()
	logger := logging.New("invoice-batch", cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, _, err := app.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	// the batch always persists locally so the export can read results back
	dbCfg := common.DatabaseConfig{SQLitePath: *sqlite}
	st, err := app.OpenStore(ctx, dbCfg, *inmem || *sqlite == "", logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	runner := pipeline.NewDocumentRunner(ocr.NewExtractor(app.OCRConfig(cfg.OCR), logger), proc, st.Store, logger)

	sum := &summary{byMethod: map[string]int{}}
	queue := async.NewProcessorQueue(runner, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(2*(*workers)),
		async.WithProcessTimeout(*timeout),
		async.WithResultHandler(sum.record),
	)

	if *watch {
		runWatch(ctx, *dir, *docType, queue, logger)
	} else {
		runScan(ctx, *dir, *docType, queue, logger)
	}
	queue.Shutdown(context.Background())

	logger.Info("exporting to XLSX", "output", *out)
	xlsx, err := export.NewService(st.Store, logger).ExportAllXLSX(context.Background())
	if err != nil {
		logger.Error("failed to export extractions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_processed", sum.processed,
		"failures", sum.failures,
		"by_method", sum.byMethod,
		"output_file", *out,
	)
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", sum.processed)
	fmt.Printf("- Failures: %d\n", sum.failures)
	for m, n := range sum.byMethod {
		fmt.Printf("- %s: %d\n", m, n)
	}
	fmt.Printf("- Output: %s\n", *out)
}

func runScan(ctx context.Context, dir, docType string, queue *async.ProcessorQueue, logger *slog.Logger) {
	files, stats, err := ingest.Scan(ctx, dir, ingest.ScanOptions{SkipHidden: true, Dedupe: true})
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	for _, f := range files {
		if f.DuplicateOf != "" {
			logger.Info("skipping duplicate", "file", f.Path, "duplicate_of", f.DuplicateOf)
			continue
		}
		if err := queue.Enqueue(ctx, async.Job{Path: f.Path, DocType: docType, TraceID: f.HashHex}); err != nil {
			logger.Warn("enqueue stopped", "error", err)
			return
		}
	}
}

func runWatch(ctx context.Context, dir, docType string, queue *async.ProcessorQueue, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for invoices", "dir", dir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			if err := queue.Enqueue(ctx, async.Job{Path: path, DocType: docType}); err != nil {
				return
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watch error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
