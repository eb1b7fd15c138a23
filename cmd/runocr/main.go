package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/logging"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

func main() {
	cfg := common.LoadConfig()
	logger := logging.New("runocr", cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := ocr.NewExtractor(app.OCRConfig(cfg.OCR), logger).Extract(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "warnings", res.Warnings)
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"lines", len(res.Lines()),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", res.Warnings,
	)
	fmt.Println(res.Text)
}
