package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/logging"
)

// runllm runs the extraction chain over a text file [times] times.
func main() {
	cfg := common.LoadConfig()
	logger := logging.New("runllm", cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: runllm <text-file> [times]")
		os.Exit(2)
	}
	times := 1
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read input", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
	raw := invoice.NewRawText(string(data))

	ctx := context.Background()
	proc, _, err := app.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	var failures int
	for i := 1; i <= times; i++ {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		start := time.Now()
		logger.Info("pipeline.run.start", "iter", i, "chars", raw.Len())

		res, err := proc.Extract(runCtx, raw, "invoice")
		cancel()
		if err != nil {
			failures++
			logger.Error("pipeline.run.error", "iter", i, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			continue
		}
		logger.Info("pipeline.run.ok",
			"iter", i,
			"method", res.Method(),
			"attempts", res.Attempts,
			"quality_score", res.Report.QualityScore,
			"valid", res.Report.IsValid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if i == times {
			out, _ := json.MarshalIndent(res.Invoice, "", "  ")
			fmt.Println(string(out))
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}
