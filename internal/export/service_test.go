package export_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

type staticLister struct {
	recs []repository.Record
	err  error
}

func (s staticLister) List(ctx context.Context, limit int) ([]repository.Record, error) {
	return s.ListPage(ctx, 0, limit)
}

func (s staticLister) ListPage(ctx context.Context, offset, limit int) ([]repository.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.recs) {
		return nil, nil
	}
	end := min(offset+limit, len(s.recs))
	return s.recs[offset:end], nil
}

func record(t *testing.T) repository.Record {
	t.Helper()
	inv := invoice.Invoice{
		VendorName:    invoice.String("Acme LLC"),
		InvoiceNumber: invoice.String("A-1"),
		Date:          invoice.String("2024-03-01"),
		TotalAmount:   invoice.Decimal(decimal.RequireFromString("30.00")),
		Currency:      "USD",
		LineItems: []invoice.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)},
			{Description: "Gadget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(10)},
		},
		ConfidenceScore: 0.85,
		Method:          constants.MethodModel,
	}
	rep := invoice.Report{IsValid: true, QualityScore: 1, Warnings: []string{}}
	rec, err := repository.NewRecord("acme.pdf", "invoice", inv, rep, 200)
	require.NoError(t, err)
	return rec
}

func TestExportWritesBothSheets(t *testing.T) {
	rec := record(t)
	svc := export.NewService(staticLister{recs: []repository.Record{rec}}, nil)

	data, err := svc.ExportExtractionsXLSX(context.Background(), 50)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{export.InvoicesSheet, export.LineItemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(export.InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, rec.ID.String(), rows[1][0])
	assert.Equal(t, "Acme LLC", rows[1][2])
	assert.Equal(t, "A-1", rows[1][3])
	assert.Equal(t, "30", rows[1][5])
	assert.Equal(t, "claude_model", rows[1][10])

	items, err := f.GetRows(export.LineItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Widget", items[1][2])
	assert.Equal(t, "Gadget", items[2][2])
}

func TestExportPropagatesListError(t *testing.T) {
	svc := export.NewService(staticLister{err: errors.New("db down")}, nil)
	_, err := svc.ExportExtractionsXLSX(context.Background(), 10)
	require.Error(t, err)
}

func TestBuildWorkbookEmpty(t *testing.T) {
	f, err := export.BuildWorkbook(nil)
	require.NoError(t, err)
	rows, err := f.GetRows(export.InvoicesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportAllPagesPastListCap(t *testing.T) {
	rec := record(t)
	recs := make([]repository.Record, repository.MaxListLimit+5)
	for i := range recs {
		recs[i] = rec
	}
	svc := export.NewService(staticLister{recs: recs}, nil)

	data, err := svc.ExportAllXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(export.InvoicesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, repository.MaxListLimit+5+1, "header plus one row per record")
}
