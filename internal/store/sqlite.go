package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

// SQLite stores results in a local file through the pure-Go modernc driver.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roster_picks (
			run_id TEXT NOT NULL,
			slot INTEGER NOT NULL,
			choice INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, slot)
		);`,
		`CREATE TABLE IF NOT EXISTS map_choices (
			run_id TEXT PRIMARY KEY,
			choice INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// SaveRoster replaces any roster already stored for runID.
func (s *SQLite) SaveRoster(ctx context.Context, runID string, picks []engine.Pick) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_picks WHERE run_id = ?`, runID); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range picks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roster_picks(run_id,slot,choice,recorded_at) VALUES(?,?,?,?)`,
			runID, p.Slot, p.Choice, now); err != nil {
			return fmt.Errorf("insert pick slot %d: %w", p.Slot, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) SaveMap(ctx context.Context, runID string, choice int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO map_choices(run_id,choice,recorded_at) VALUES(?,?,?)`,
		runID, choice, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Roster reports ErrNotFound when no picks are stored for runID, which
// includes a saved empty roster.
func (s *SQLite) Roster(ctx context.Context, runID string) ([]engine.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, choice FROM roster_picks WHERE run_id = ? ORDER BY slot`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []engine.Pick
	for rows.Next() {
		var p engine.Pick
		if err := rows.Scan(&p.Slot, &p.Choice); err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, ErrNotFound
	}
	return picks, nil
}

func (s *SQLite) Map(ctx context.Context, runID string) (int, error) {
	var choice int
	err := s.db.QueryRowContext(ctx, `SELECT choice FROM map_choices WHERE run_id = ?`, runID).Scan(&choice)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.NoChoice, ErrNotFound
	}
	if err != nil {
		return engine.NoChoice, err
	}
	return choice, nil
}
