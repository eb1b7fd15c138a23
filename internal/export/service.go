// Package export renders stored extractions as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const (
	InvoicesSheet  = "Invoices"
	LineItemsSheet = "Line Items"

	maxWarningsCell = 240
)

var (
	invoiceHeaders = []string{
		"ID", "Filename", "Vendor", "Invoice Number", "Date", "Total", "Currency",
		"Tax", "Customer", "Payment Terms", "Method", "Confidence", "Quality Score",
		"Valid", "Warnings", "Extracted At",
	}
	lineItemHeaders = []string{"ID", "Filename", "Description", "Quantity", "Unit Price", "Total"}
)

// Lister is the part of repository.Store the exporter reads from.
type Lister interface {
	List(ctx context.Context, limit int) ([]repository.Record, error)
	ListPage(ctx context.Context, offset, limit int) ([]repository.Record, error)
}

// Service is a small façade over the store that produces XLSX bytes.
type Service struct {
	records Lister
	logger  *slog.Logger
}

func NewService(records Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportExtractionsXLSX returns a workbook of the newest limit extractions.
// limit is capped at repository.MaxListLimit.
func (s *Service) ExportExtractionsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()
	recs, err := s.records.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	return s.render(recs, start)
}

// ExportAllXLSX pages through every stored extraction, newest first.
func (s *Service) ExportAllXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	var recs []repository.Record
	for {
		page, err := s.records.ListPage(ctx, len(recs), repository.MaxListLimit)
		if err != nil {
			return nil, fmt.Errorf("query extractions at %d: %w", len(recs), err)
		}
		recs = append(recs, page...)
		if len(page) < repository.MaxListLimit {
			break
		}
	}
	return s.render(recs, start)
}

func (s *Service) render(recs []repository.Record, start time.Time) ([]byte, error) {
	f, err := BuildWorkbook(recs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %w", common.ErrInternal, err), "xlsx write")
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// BuildWorkbook lays recs out on an Invoices sheet with one row per record
// and a Line Items sheet with one row per item.
func BuildWorkbook(recs []repository.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		return nil, err
	}
	writeHeader(f, InvoicesSheet, invoiceHeaders)
	writeHeader(f, LineItemsSheet, lineItemHeaders)

	invRow, itemRow := 2, 2
	for _, rec := range recs {
		inv, rep, err := rec.Decode()
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		id := rec.ID.String()

		writeRow(f, InvoicesSheet, invRow,
			id,
			rec.Filename,
			invoice.Deref(inv.VendorName),
			invoice.Deref(inv.InvoiceNumber),
			invoice.Deref(inv.Date),
			amount(inv.TotalAmount),
			inv.Currency,
			amount(inv.TaxAmount),
			invoice.Deref(inv.CustomerName),
			invoice.Deref(inv.PaymentTerms),
			rec.Method,
			inv.ConfidenceScore,
			rep.QualityScore,
			rep.IsValid,
			truncate(strings.Join(rep.Warnings, "; "), maxWarningsCell),
			rec.CreatedAt.UTC().Format(time.RFC3339),
		)
		invRow++

		for _, it := range inv.LineItems {
			writeRow(f, LineItemsSheet, itemRow,
				id,
				rec.Filename,
				it.Description,
				it.Quantity.InexactFloat64(),
				it.UnitPrice.InexactFloat64(),
				it.Total.InexactFloat64(),
			)
			itemRow++
		}
	}

	_ = f.SetColWidth(InvoicesSheet, "A", "A", 38) // id
	_ = f.SetColWidth(InvoicesSheet, "B", "C", 28) // filename, vendor
	_ = f.SetColWidth(InvoicesSheet, "D", "E", 16)
	_ = f.SetColWidth(InvoicesSheet, "O", "O", 60) // warnings
	_ = f.SetColWidth(LineItemsSheet, "A", "A", 38)
	_ = f.SetColWidth(LineItemsSheet, "C", "C", 48)

	idx, _ := f.GetSheetIndex(InvoicesSheet)
	f.SetActiveSheet(idx)
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	vals := make([]any, len(headers))
	for i, h := range headers {
		vals[i] = h
	}
	writeRow(f, sheet, 1, vals...)
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// amount leaves the cell blank for a missing value.
func amount(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
