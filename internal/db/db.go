package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wilterson/auto-backup-manjaro/pkg/models"
)

// DB records backup and restore runs in a local SQLite database.
type DB struct {
	*sql.DB
}

// DefaultPath returns the history database location under the XDG state dir.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "auto-backup", "history.db")
}

// New opens (and if needed creates) the history database at path.
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			copied INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`)
	return err
}

// StartRun inserts a running record and returns its ID.
func (db *DB) StartRun(kind, snapshot string) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO runs (kind, snapshot, started_at, status)
		VALUES (?, ?, ?, ?)
	`, kind, snapshot, time.Now(), models.StatusRunning)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun closes out a run with its final counters and status.
func (db *DB) FinishRun(id int64, copied, failed int, bytes int64, status string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET finished_at = ?, copied = ?, failed = ?, bytes = ?, status = ?
		WHERE id = ?
	`, time.Now(), copied, failed, bytes, status, id)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	rows, err := db.Query(`
		SELECT id, kind, snapshot, started_at, COALESCE(finished_at, started_at), copied, failed, bytes, status
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		err = rows.Scan(&run.ID, &run.Kind, &run.Snapshot, &run.StartedAt, &run.FinishedAt,
			&run.Copied, &run.Failed, &run.Bytes, &run.Status)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats aggregates the run history.
func (db *DB) Stats() (*models.Stats, error) {
	var stats models.Stats
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN kind = ? THEN 1 END),
			COUNT(CASE WHEN kind = ? THEN 1 END),
			COALESCE(SUM(copied), 0),
			COALESCE(SUM(failed), 0),
			COALESCE(SUM(bytes), 0)
		FROM runs
	`, models.RunBackup, models.RunRestore).Scan(
		&stats.TotalRuns,
		&stats.BackupRuns,
		&stats.RestoreRuns,
		&stats.TotalCopied,
		&stats.TotalFailed,
		&stats.TotalBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	err = db.QueryRow(`
		SELECT snapshot FROM runs
		WHERE kind = ? AND snapshot != ''
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, models.RunBackup).Scan(&stats.LastSnapshot)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return &stats, nil
}
