package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Record is one stored extraction outcome.
type Record struct {
	ID            uuid.UUID
	Filename      string
	DocumentType  string
	Method        string
	QualityScore  float64
	IsValid       bool
	Invoice       json.RawMessage
	Report        json.RawMessage
	RawTextLength int
	CreatedAt     time.Time
}

// Store persists extraction records. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	// ListPage is List starting offset records into the newest-first order.
	ListPage(ctx context.Context, offset, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// NewRecord snapshots an extraction. ID and CreatedAt are assigned here.
func NewRecord(filename, docType string, inv invoice.Invoice, rep invoice.Report, rawTextLen int) (Record, error) {
	ib, err := json.Marshal(inv)
	if err != nil {
		return Record{}, fmt.Errorf("encode invoice: %w", err)
	}
	rb, err := json.Marshal(rep)
	if err != nil {
		return Record{}, fmt.Errorf("encode report: %w", err)
	}
	return Record{
		ID:            uuid.New(),
		Filename:      filename,
		DocumentType:  docType,
		Method:        inv.Method.String(),
		QualityScore:  rep.QualityScore,
		IsValid:       rep.IsValid,
		Invoice:       ib,
		Report:        rb,
		RawTextLength: rawTextLen,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Decode unpacks the stored invoice and report.
func (r Record) Decode() (invoice.Invoice, invoice.Report, error) {
	var inv invoice.Invoice
	var rep invoice.Report
	if err := json.Unmarshal(r.Invoice, &inv); err != nil {
		return inv, rep, fmt.Errorf("decode invoice: %w: %w", common.ErrValidation, err)
	}
	if err := json.Unmarshal(r.Report, &rep); err != nil {
		return inv, rep, fmt.Errorf("decode report: %w: %w", common.ErrValidation, err)
	}
	return inv, rep, nil
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// clampLimit maps a non-positive limit to the default and caps the rest.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
