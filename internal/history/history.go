// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records conversion runs in a SQLite database so unchanged
// sources can be skipped on later runs and past runs can be listed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc-distill/pkg/types"
)

// defaultLimit caps List when the caller passes a non-positive limit.
const defaultLimit = 20

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_path TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			ocr INTEGER NOT NULL,
			compressed INTEGER NOT NULL,
			pages INTEGER NOT NULL,
			ocr_pages INTEGER NOT NULL,
			markdown_path TEXT,
			compressed_path TEXT,
			settings TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_path, id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addColumn("runs", "settings", "TEXT NOT NULL DEFAULT ''")
}

// addColumn adds column to table when a database created by an older
// version lacks it.
func (s *Store) addColumn(table, column, decl string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("inspecting %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("adding column %s.%s: %w", table, column, err)
	}
	return nil
}

// Record inserts run and returns its row ID. A zero ConvertedAt is set to
// the current time.
func (s *Store) Record(ctx context.Context, run types.Run) (int64, error) {
	if run.ConvertedAt.IsZero() {
		run.ConvertedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (source_path, fingerprint, ocr, compressed, pages, ocr_pages,
			markdown_path, compressed_path, settings, status, error, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SourcePath, run.Fingerprint, run.OCR, run.Compressed, run.Pages, run.OCRPages,
		run.MarkdownPath, run.CompressedPath, run.Settings, string(run.Status), run.Error,
		run.ConvertedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run for %s: %w", run.SourcePath, err)
	}
	return res.LastInsertId()
}

// LatestSuccess returns the most recent successful run for sourcePath, or
// nil when there is none.
func (s *Store) LatestSuccess(ctx context.Context, sourcePath string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE source_path = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		sourcePath, string(types.ConversionDone),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", sourcePath, err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ExportYAML writes up to limit runs to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return enc.Close()
}

const runColumns = `id, source_path, fingerprint, ocr, compressed, pages, ocr_pages,
	COALESCE(markdown_path, ''), COALESCE(compressed_path, ''), settings, status,
	COALESCE(error, ''), converted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		run         types.Run
		status      string
		convertedAt string
	)
	err := sc.Scan(&run.ID, &run.SourcePath, &run.Fingerprint, &run.OCR, &run.Compressed,
		&run.Pages, &run.OCRPages, &run.MarkdownPath, &run.CompressedPath, &run.Settings, &status,
		&run.Error, &convertedAt)
	if err != nil {
		return types.Run{}, err
	}
	run.Status = types.ConversionStatus(status)
	if t, err := time.Parse(time.RFC3339Nano, convertedAt); err == nil {
		run.ConvertedAt = t
	}
	return run, nil
}

// Fingerprint returns the xxhash64 of the file at path as 16 hex digits.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// SettingsDigest folds the settings that shape a conversion's output into a
// short digest suitable for Run.Settings. Parts are order-sensitive.
func SettingsDigest(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Unchanged reports whether prev can stand in for a conversion described by
// want: same source bytes, same OCR, compression and output settings, the
// same output paths, and those outputs still on disk.
func Unchanged(prev *types.Run, want types.Run) bool {
	if prev == nil || prev.MarkdownPath == "" {
		return false
	}
	if prev.Fingerprint != want.Fingerprint ||
		prev.OCR != want.OCR ||
		prev.Compressed != want.Compressed ||
		prev.Settings != want.Settings ||
		prev.MarkdownPath != want.MarkdownPath ||
		prev.CompressedPath != want.CompressedPath {
		return false
	}
	for _, p := range []string{prev.MarkdownPath, prev.CompressedPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// FormatRun renders run as a single line for terminal listings.
func FormatRun(run types.Run) string {
	line := fmt.Sprintf("%s  %-9s  %s  pages=%d",
		run.ConvertedAt.Local().Format("2006-01-02 15:04:05"), run.Status, run.SourcePath, run.Pages)
	if run.OCRPages > 0 {
		line += fmt.Sprintf(" ocr=%d", run.OCRPages)
	}
	if run.Error != "" {
		line += "  error=" + run.Error
	}
	return line
}
