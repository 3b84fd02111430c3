package sync

import (
	"fmt"
	"strings"
	"time"
)

// SnapshotPrefix starts every dated snapshot folder name.
const SnapshotPrefix = "backup_"

// Minute granularity, fixed-width decimal. Descending string order equals
// descending recency for snapshots taken at least one minute apart.
const snapshotTimeLayout = "200601021504"

// SnapshotName returns the snapshot folder name for a capture time,
// e.g. backup_202601311942.
func SnapshotName(t time.Time) string {
	return SnapshotPrefix + t.Format(snapshotTimeLayout)
}

// IsSnapshotName reports whether name is a well-formed snapshot folder name.
func IsSnapshotName(name string) bool {
	_, err := SnapshotTime(name)
	return err == nil
}

// SnapshotTime parses the capture time out of a snapshot folder name.
func SnapshotTime(name string) (time.Time, error) {
	if !strings.HasPrefix(name, SnapshotPrefix) {
		return time.Time{}, fmt.Errorf("not a snapshot name: %s", name)
	}
	return time.Parse(snapshotTimeLayout, strings.TrimPrefix(name, SnapshotPrefix))
}
