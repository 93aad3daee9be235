package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	_ "modernc.org/sqlite"

	"github.com/darmiel/verdict/internal/core"
)

//go:embed schema.sql
var schemaSQL string

var (
	_ core.DocumentStore = (*SQLiteStore)(nil)
	_ core.ResultStore   = (*SQLiteStore)(nil)
)

// SQLiteStore persists documents and evaluation results in a SQLite
// database. Documents and results are stored as JSON payloads with the
// queryable columns extracted.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	db.SetMaxOpenConns(2) // one for writer, one for readers
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDocument(ctx context.Context, doc core.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, kind, name, fingerprint, payload, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			fingerprint = excluded.fingerprint,
			payload = excluded.payload,
			uploaded_at = excluded.uploaded_at`,
		doc.ID, string(doc.Kind), doc.Name, doc.Fingerprint, string(payload),
		doc.UploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (core.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM documents WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, core.ErrDocumentNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("loading document: %w", err)
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return core.Document{}, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, kind core.Kind) ([]core.Document, error) {
	query := `SELECT payload FROM documents ORDER BY uploaded_at DESC`
	args := []any{}
	if kind != "" {
		query = `SELECT payload FROM documents WHERE kind = ? ORDER BY uploaded_at DESC`
		args = append(args, string(kind))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := make([]core.Document, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		var doc core.Document
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrDocumentNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, results []core.EvaluationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (id, run_id, payload, evaluated_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, result := range results {
		stored := core.StoredResult{
			ID:          xid.New().String(),
			RunID:       runID,
			Result:      result,
			EvaluatedAt: now,
		}
		payload, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			stored.ID, runID, string(payload), now.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("saving result: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]core.StoredResult, error) {
	query := `SELECT payload FROM results ORDER BY evaluated_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	results := make([]core.StoredResult, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		var stored core.StoredResult
		if err := json.Unmarshal([]byte(payload), &stored); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		results = append(results, stored)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) ClearResults(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clearing results: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM results WHERE evaluated_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old results: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
