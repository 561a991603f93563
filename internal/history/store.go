// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package history persists rotation history in DuckDB.
//
// Two tables back the gap rule:
//
//   - rotation_records: one row per recorded rotation, ids from a sequence;
//     dry runs are flagged so they never count as the live placement
//   - collection_usage: per collection, the last rotation it appeared in and
//     how many times it has been featured
//
// Context returns the read-only snapshot consumed by the rotation engine.
// RecordRotation writes the record and all usage updates in one transaction.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/rotation"
)

const defaultQueryTimeout = 30 * time.Second

// Record is a stored rotation.
type Record struct {
	ID                  int64     `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	Success             bool      `json:"success"`
	DryRun              bool      `json:"dry_run"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	FeaturedCollections []string  `json:"featured_collections"`
}

// Store is the DuckDB-backed history store.
type Store struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// New opens the database at cfg.Path and creates the schema.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false", cfg.Path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{conn: conn, path: cfg.Path, now: func() time.Time { return time.Now().UTC() }}

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()
	if err := s.createSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS rotation_records_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS rotation_records (
		id BIGINT PRIMARY KEY DEFAULT nextval('rotation_records_id_seq'),
		created_at TIMESTAMP NOT NULL,
		success BOOLEAN NOT NULL,
		dry_run BOOLEAN NOT NULL DEFAULT false,
		error_message VARCHAR,
		featured_collections VARCHAR NOT NULL
	)`,
	`ALTER TABLE rotation_records ADD COLUMN IF NOT EXISTS dry_run BOOLEAN DEFAULT false`,
	`CREATE TABLE IF NOT EXISTS collection_usage (
		collection_name VARCHAR PRIMARY KEY,
		last_rotation_id BIGINT,
		last_rotated_at TIMESTAMP,
		times_used INTEGER NOT NULL DEFAULT 0
	)`,
}

func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// Close checkpoints and closes the database.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()
	if s.path != ":memory:" {
		if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint history database before close")
		}
	}
	return s.conn.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Context returns the highest recorded rotation id (0 when empty) and the
// usage map.
func (s *Store) Context(ctx context.Context) (rotation.HistoryContext, error) {
	start := time.Now()
	hc := rotation.EmptyHistory()

	err := s.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM rotation_records`).Scan(&hc.MaxRotationID)
	metrics.RecordDBQuery("SELECT", "rotation_records", time.Since(start), err)
	if err != nil {
		return hc, fmt.Errorf("query max rotation id: %w", err)
	}

	usage, err := s.ListUsage(ctx)
	if err != nil {
		return hc, err
	}
	for _, u := range usage {
		hc.Usage[u.CollectionName] = u
	}
	return hc, nil
}

// RecordRotation stores a rotation and returns its id. Usage counters are only
// advanced for successful rotations.
func (s *Store) RecordRotation(ctx context.Context, featured []string, success bool, errMsg string) (int64, error) {
	return s.record(ctx, featured, success, false, errMsg)
}

// RecordDryRun stores a successful dry run. It advances usage like a live
// rotation but is never reported by LatestApplied.
func (s *Store) RecordDryRun(ctx context.Context, featured []string) (int64, error) {
	return s.record(ctx, featured, true, true, "")
}

func (s *Store) record(ctx context.Context, featured []string, success, dryRun bool, errMsg string) (id int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("INSERT", "rotation_records", time.Since(start), err) }()

	if featured == nil {
		featured = []string{}
	}
	encoded, err := json.Marshal(featured)
	if err != nil {
		return 0, fmt.Errorf("encode featured collections: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := s.now()
	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO rotation_records (created_at, success, dry_run, error_message, featured_collections)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		now, success, dryRun, msg, string(encoded),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert rotation record: %w", err)
	}

	if success {
		for _, name := range featured {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO collection_usage (collection_name, last_rotation_id, last_rotated_at, times_used)
				 VALUES (?, ?, ?, 1)
				 ON CONFLICT (collection_name) DO UPDATE SET
					last_rotation_id = EXCLUDED.last_rotation_id,
					last_rotated_at = EXCLUDED.last_rotated_at,
					times_used = collection_usage.times_used + 1`,
				name, id, now,
			)
			if err != nil {
				return 0, fmt.Errorf("update usage for %q: %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rotation record: %w", err)
	}
	logging.Info().Int64("rotation_id", id).Bool("success", success).Bool("dry_run", dryRun).Strs("featured", featured).Msg("Recorded rotation")
	return id, nil
}

// ListRotations returns up to limit records, newest first.
func (s *Store) ListRotations(ctx context.Context, limit int) ([]Record, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM rotation_records ORDER BY id DESC LIMIT ?`, limit)
	metrics.RecordDBQuery("SELECT", "rotation_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query rotations: %w", err)
	}
	defer closeQuietly(rows)

	out := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// LatestApplied returns the newest successful live rotation, or nil when
// none has been recorded. Failed rotations and dry runs are skipped.
func (s *Store) LatestApplied(ctx context.Context) (*Record, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM rotation_records
		 WHERE success AND NOT dry_run ORDER BY id DESC LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	metrics.RecordDBQuery("SELECT", "rotation_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query latest applied rotation: %w", err)
	}
	return rec, nil
}

const recordColumns = `id, created_at, success, dry_run, error_message, featured_collections`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads recordColumns. It returns nil and sql.ErrNoRows unwrapped
// when row is empty.
func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec      Record
		msg      sql.NullString
		featured string
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Success, &rec.DryRun, &msg, &featured); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan rotation: %w", err)
	}
	rec.ErrorMessage = msg.String
	if err := json.Unmarshal([]byte(featured), &rec.FeaturedCollections); err != nil {
		return nil, fmt.Errorf("decode featured collections of rotation %d: %w", rec.ID, err)
	}
	return &rec, nil
}

// ListUsage returns usage records sorted by most recent rotation first.
func (s *Store) ListUsage(ctx context.Context) ([]rotation.CollectionUsage, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT collection_name, last_rotation_id, last_rotated_at, times_used
		 FROM collection_usage
		 ORDER BY last_rotation_id DESC NULLS LAST, collection_name`)
	metrics.RecordDBQuery("SELECT", "collection_usage", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer closeQuietly(rows)

	var out []rotation.CollectionUsage
	for rows.Next() {
		var (
			u      rotation.CollectionUsage
			lastID sql.NullInt64
			lastAt sql.NullTime
		)
		if err := rows.Scan(&u.CollectionName, &lastID, &lastAt, &u.TimesUsed); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		if lastID.Valid {
			v := lastID.Int64
			u.LastRotationID = &v
		}
		if lastAt.Valid {
			v := lastAt.Time
			u.LastRotatedAt = &v
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Clear deletes all history and restarts rotation ids at 1.
func (s *Store) Clear(ctx context.Context) error {
	stmts := []string{
		`DROP TABLE IF EXISTS collection_usage`,
		`DROP TABLE IF EXISTS rotation_records`,
		`DROP SEQUENCE IF EXISTS rotation_records_id_seq`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	if err := s.createSchema(ctx); err != nil {
		return fmt.Errorf("recreate schema: %w", err)
	}
	logging.Warn().Msg("Rotation history cleared")
	return nil
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		logging.Debug().Err(err).Msg("close failed")
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
