package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// RecordSaver is the part of repository.Store the runner needs.
type RecordSaver interface {
	Save(ctx context.Context, rec repository.Record) error
}

// OCRObserver is notified after every OCR call.
type OCRObserver interface {
	ObserveOCR(method string, err error)
}

// Document is the outcome of running one file end to end.
type Document struct {
	ID       uuid.UUID // uuid.Nil when nothing was stored
	Filename string
	Status   constants.JobStatus
	OCR      ocr.Result
	Result
}

// DocumentRunner feeds a file through OCR, the Processor and, when a store
// is configured, persistence.
type DocumentRunner struct {
	Source    ocr.TextSource
	Processor *Processor
	Store     RecordSaver // optional
	OCRObs    OCRObserver // optional
	Logger    *slog.Logger
}

func NewDocumentRunner(src ocr.TextSource, p *Processor, store RecordSaver, logger *slog.Logger) *DocumentRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentRunner{Source: src, Processor: p, Store: store, Logger: logger}
}

// Run processes the file at path. filename is the name reported back to the
// caller and stored; it defaults to the base of path.
func (r *DocumentRunner) Run(ctx context.Context, path, filename, docType string) (Document, error) {
	if filename == "" {
		filename = filepath.Base(path)
	}
	doc := Document{Filename: filename, Status: constants.JobStatusRunning}
	if constants.MapExtToFormat(filepath.Ext(filename)) == "" {
		doc.Status = constants.JobStatusFailed
		return doc, fmt.Errorf("%w: %s", common.ErrUnsupportedFile, filepath.Ext(filename))
	}

	res, err := r.Source.Extract(ctx, path)
	if r.OCRObs != nil {
		r.OCRObs.ObserveOCR(res.Method, err)
	}
	if err != nil {
		doc.Status = constants.JobStatusFailed
		r.Logger.Error("pipeline.ocr.failed", "file", filename, "error", err)
		return doc, fmt.Errorf("ocr %s: %w", filename, err)
	}
	doc.OCR = res
	doc.Status = constants.JobStatusOCROK
	r.Logger.Info("pipeline.ocr.ok",
		"file", filename,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)

	raw := invoice.FromLines(res.Lines())
	out, err := r.Processor.Extract(ctx, raw, docType)
	if err != nil {
		doc.Status = constants.JobStatusFailed
		if !errors.Is(err, common.ErrInsufficientText) {
			r.Logger.Error("pipeline.extract.failed", "file", filename, "error", err)
		}
		return doc, err
	}
	doc.Result = out
	doc.Status = constants.JobStatusDone

	if r.Store == nil {
		return doc, nil
	}
	if docType == "" {
		docType = constants.DefaultDocumentType
	}
	rec, err := repository.NewRecord(filename, docType, out.Invoice, out.Report, raw.Len())
	if err == nil {
		err = r.Store.Save(ctx, rec)
	}
	if err != nil {
		// the extraction itself succeeded; persistence is best effort
		r.Logger.Warn("pipeline.store.failed", "file", filename, "error", err)
		return doc, nil
	}
	doc.ID = rec.ID
	return doc, nil
}
