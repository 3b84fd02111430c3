package models

import "time"

// Run kinds recorded in the history database.
const (
	RunBackup  = "backup"
	RunRestore = "restore"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run represents one recorded backup or restore pass.
type Run struct {
	ID         int64
	Kind       string
	Snapshot   string
	StartedAt  time.Time
	FinishedAt time.Time
	Copied     int64
	Failed     int64
	Bytes      int64
	Status     string
}

// Stats aggregates the run history for status reporting.
type Stats struct {
	TotalRuns    int64
	BackupRuns   int64
	RestoreRuns  int64
	TotalCopied  int64
	TotalFailed  int64
	TotalBytes   int64
	LastSnapshot string
}
