package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS extractions (
	id            UUID PRIMARY KEY,
	filename      TEXT NOT NULL,
	document_type TEXT NOT NULL,
	method        TEXT NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL,
	is_valid      BOOLEAN NOT NULL,
	invoice       JSONB NOT NULL,
	report        JSONB NOT NULL,
	raw_text_len  INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_created_at_idx ON extractions (created_at DESC);
`

const selectColumns = `id, filename, document_type, method, quality_score, is_valid, invoice, report, raw_text_len, created_at`

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// EnsureSchema creates the extractions table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", common.ErrDatabase, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extractions (`+selectColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.Filename, rec.DocumentType, rec.Method, rec.QualityScore, rec.IsValid,
		[]byte(rec.Invoice), []byte(rec.Report), rec.RawTextLength, rec.CreatedAt,
	)
	if err != nil {
		s.logger.Error("repo.extraction.save_failed", "id", rec.ID, "error", err)
		return fmt.Errorf("%w: save extraction: %v", common.ErrDatabase, err)
	}
	s.logger.Debug("repo.extraction.saved", "id", rec.ID, "method", rec.Method)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM extractions WHERE id = $1`, id)
	rec, err := scanPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, common.NotFoundf("extraction %s", id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: get extraction: %v", common.ErrDatabase, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	return s.ListPage(ctx, 0, limit)
}

func (s *PostgresStore) ListPage(ctx context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM extractions ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, clampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list extractions: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanPG(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan extraction: %v", common.ErrDatabase, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list extractions: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM extractions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count extractions: %v", common.ErrDatabase, err)
	}
	return n, nil
}

func scanPG(row pgx.Row) (Record, error) {
	var rec Record
	var inv, rep []byte
	err := row.Scan(&rec.ID, &rec.Filename, &rec.DocumentType, &rec.Method, &rec.QualityScore,
		&rec.IsValid, &inv, &rep, &rec.RawTextLength, &rec.CreatedAt)
	rec.Invoice, rec.Report = inv, rep
	return rec, err
}
