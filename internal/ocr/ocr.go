// Package ocr turns an uploaded document into text lines. PDFs are read from
// their text layer when possible and rasterized through tesseract otherwise.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

type Mode string

const (
	ModeAuto   Mode = "auto"   // native text layer, then external tools
	ModeNative Mode = "native" // ledongthuc/pdf only
	ModeExec   Mode = "exec"   // pdftotext, then pdftoppm + tesseract
)

const (
	MethodNative   = "pdf-native"
	MethodPdfText  = "pdf-text"
	MethodPdfOCR   = "pdf-ocr"
	MethodTextFile = "text-file"
)

type Config struct {
	Mode Mode

	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// MinText is the trimmed length below which a strategy's output counts
	// as empty and the next strategy is tried.
	MinText int
}

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.TEXT
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Lines returns the non-blank, trimmed lines of Text.
func (r Result) Lines() []string {
	var out []string
	for _, l := range strings.Split(r.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// TextSource is what the pipeline needs from this package.
type TextSource interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewExtractorWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewExtractorWithRunner lets tests stub the external tools.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinText <= 0 {
		cfg.MinText = 50
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "mode", e.cfg.Mode, "ext", ext)

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.TEXT:
		res, err = e.extractTextFile(path)
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return Result{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFile, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	var warns []string

	if e.cfg.Mode != ModeExec {
		txt, pages, err := nativePDFText(path, e.cfg.MaxPages)
		switch {
		case err != nil:
			warns = append(warns, "native: "+err.Error())
		case e.enough(txt):
			return e.result(txt, pages, MethodNative, warns), nil
		default:
			warns = append(warns, "native: text layer too short")
		}
		if e.cfg.Mode == ModeNative {
			if err != nil {
				return Result{SourceType: constants.PDF, Warnings: warns}, fmt.Errorf("native pdf: %w", err)
			}
			return e.result(txt, pages, MethodNative, warns), nil
		}
	}

	txt, pages, w, err := e.pdfToText(ctx, path)
	warns = append(warns, w...)
	if err == nil && e.enough(Normalize(txt)) {
		return e.result(txt, pages, MethodPdfText, warns), nil
	}
	if err != nil {
		warns = append(warns, "pdftotext: "+err.Error())
	}

	txt, pages, conf, w, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		return Result{SourceType: constants.PDF, Warnings: warns}, fmt.Errorf("pdf ocr: %w", err)
	}
	res := e.result(txt, pages, MethodPdfOCR, warns)
	if conf > 0 {
		// weight engine confidence over the text heuristic
		res.Confidence = min(1, 0.7*conf+0.3*res.Confidence)
	}
	return res, nil
}

func (e *Extractor) result(txt string, pages int, method string, warns []string) Result {
	txt = Normalize(txt)
	return Result{
		Text:       txt,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     method,
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}
}

func (e *Extractor) enough(txt string) bool {
	return len(strings.TrimSpace(txt)) >= e.cfg.MinText
}
