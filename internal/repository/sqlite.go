package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS extractions (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	document_type TEXT NOT NULL,
	method        TEXT NOT NULL,
	quality_score REAL NOT NULL,
	is_valid      INTEGER NOT NULL,
	invoice       TEXT NOT NULL,
	report        TEXT NOT NULL,
	raw_text_len  INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_created_at_idx ON extractions (created_at DESC);
`

// sqliteTimeLayout is fixed width so created_at sorts lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the single-file (or in-memory) Store used by the batch CLI
// and tests.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens path (":memory:" for a private in-memory database) and
// creates the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", common.ErrDatabase, err)
	}
	// one connection: an in-memory database lives and dies with its connection,
	// and a file database avoids SQLITE_BUSY between batch workers
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout=10000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, p := range append(pragmas, sqliteSchema) {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: init sqlite: %v", common.ErrDatabase, err)
		}
	}
	logger.Info("repo.sqlite.open", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (`+selectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.ID.String(), rec.Filename, rec.DocumentType, rec.Method, rec.QualityScore, rec.IsValid,
		string(rec.Invoice), string(rec.Report), rec.RawTextLength, rec.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		s.logger.Error("repo.extraction.save_failed", "id", rec.ID, "error", err)
		return fmt.Errorf("%w: save extraction: %v", common.ErrDatabase, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM extractions WHERE id = ?`, id.String())
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, common.NotFoundf("extraction %s", id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: get extraction: %v", common.ErrDatabase, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	return s.ListPage(ctx, 0, limit)
}

func (s *SQLiteStore) ListPage(ctx context.Context, offset, limit int) ([]Record, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM extractions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, clampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list extractions: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
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

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM extractions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count extractions: %v", common.ErrDatabase, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (Record, error) {
	var (
		rec       Record
		id        string
		inv, rep  string
		createdAt string
	)
	if err := row.Scan(&id, &rec.Filename, &rec.DocumentType, &rec.Method, &rec.QualityScore,
		&rec.IsValid, &inv, &rep, &rec.RawTextLength, &createdAt); err != nil {
		return Record{}, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("parse id: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.Invoice, rec.Report = []byte(inv), []byte(rep)
	return rec, nil
}
