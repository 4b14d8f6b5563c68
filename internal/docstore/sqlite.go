package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore/migrations"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var gooseMu sync.Mutex

// SQLite is a file-backed document store. Writes are only observed by
// subscribers in the same process.
type SQLite struct {
	db  *sql.DB
	hub *hub
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, hub: newHub()}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (s *SQLite) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	result := []Record{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(id, []byte(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLite) Add(ctx context.Context, collection string, fields Record) (string, error) {
	data, err := encodeRecord(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)`,
		collection, id, string(data), time.Now().UnixMilli()); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	s.notify(ctx, collection)
	return id, nil
}

func (s *SQLite) Update(ctx context.Context, collection, id string, patch Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select document: %w", err)
	}

	existing := Record{}
	if err := json.Unmarshal([]byte(data), &existing); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	merged, err := encodeRecord(existing.Merge(patch))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(merged), time.Now().UnixMilli(), collection, id); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(ctx, collection)
	}
	return nil
}

func (s *SQLite) Subscribe(_ context.Context, collection string, onChange func([]Record)) (func(), error) {
	return s.hub.add(collection, onChange), nil
}

// notify reloads the collection for subscribers after a committed write.
func (s *SQLite) notify(ctx context.Context, collection string) {
	err := s.hub.refresh(collection, func() ([]Record, error) {
		return s.LoadAll(context.WithoutCancel(ctx), collection)
	})
	if err != nil {
		slog.Error("docstore reload failed", "collection", collection, "error", err)
	}
}

func (s *SQLite) Close() error {
	s.hub.clear()
	return s.db.Close()
}
