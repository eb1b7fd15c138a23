package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(t *testing.T, vendor string) repository.Record {
	t.Helper()
	inv := invoice.Invoice{
		VendorName:      invoice.String(vendor),
		TotalAmount:     invoice.Decimal(decimal.RequireFromString("500.00")),
		Currency:        constants.DefaultCurrency,
		LineItems:       []invoice.LineItem{},
		ConfidenceScore: 0.85,
		Method:          constants.MethodModel,
	}
	rep := invoice.Report{IsValid: true, QualityScore: 0.8, Warnings: []string{"Invoice date not found"}}
	rec, err := repository.NewRecord("inv.pdf", "invoice", inv, rep, 120)
	require.NoError(t, err)
	return rec
}

func TestSQLiteSaveGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	rec := sampleRecord(t, "Acme LLC")

	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "inv.pdf", got.Filename)
	assert.Equal(t, "claude_model", got.Method)
	assert.True(t, got.IsValid)
	assert.Equal(t, 120, got.RawTextLength)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)

	inv, rep, err := got.Decode()
	require.NoError(t, err)
	assert.Equal(t, "Acme LLC", invoice.Deref(inv.VendorName))
	require.NotNil(t, inv.TotalAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, []string{"Invoice date not found"}, rep.Warnings)
}

func TestSQLiteGetMissing(t *testing.T) {
	_, err := openStore(t).Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSQLiteListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	older := sampleRecord(t, "First Inc")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleRecord(t, "Second Inc")
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteListCapsLargeLimits(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	total := repository.MaxListLimit + 5
	base := time.Now().UTC()
	for i := 0; i < total; i++ {
		rec := sampleRecord(t, "Acme LLC")
		rec.CreatedAt = base.Add(-time.Duration(i) * time.Second)
		require.NoError(t, s.Save(ctx, rec))
	}

	for limit, want := range map[int]int{0: repository.DefaultListLimit, 120: 120, 1001: repository.MaxListLimit, 5000: repository.MaxListLimit} {
		list, err := s.List(ctx, limit)
		require.NoError(t, err)
		assert.Len(t, list, want, "limit %d", limit)
	}

	rest, err := s.ListPage(ctx, repository.MaxListLimit, repository.MaxListLimit)
	require.NoError(t, err)
	assert.Len(t, rest, 5)
}

func TestSQLiteDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	rec := sampleRecord(t, "Acme LLC")
	require.NoError(t, s.Save(ctx, rec))

	err := s.Save(ctx, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDatabase))
}

func TestDecodeCorruptInvoice(t *testing.T) {
	rec := sampleRecord(t, "Acme")
	rec.Invoice = []byte(`{"vendor_name": 42`)

	_, _, err := rec.Decode()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}
