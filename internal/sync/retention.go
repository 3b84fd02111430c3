package sync

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wilterson/auto-backup-manjaro/internal/logging"
	"github.com/wilterson/auto-backup-manjaro/internal/remote"
)

// Retention keeps at most Keep dated snapshot folders under a remote parent.
type Retention struct {
	store remote.Storage
	keep  int
	log   zerolog.Logger
}

// NewRetention creates a retention policy with the given keep-count.
func NewRetention(store remote.Storage, keep int) *Retention {
	return &Retention{
		store: store,
		keep:  keep,
		log:   logging.GetLogger("sync.retention"),
	}
}

// Apply lists snapshot folders under parentID and trashes every one beyond
// the keep-count, newest first. Name order is recency order per the snapshot
// naming invariant. A failed deletion is logged and does not block the rest.
// Returns the number of folders deleted.
func (r *Retention) Apply(ctx context.Context, parentID string) (int, error) {
	folders, err := r.store.ListFolders(ctx, parentID, SnapshotPrefix)
	if err != nil {
		return 0, err
	}

	snapshots := folders[:0]
	for _, f := range folders {
		if IsSnapshotName(f.Name) {
			snapshots = append(snapshots, f)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name > snapshots[j].Name })

	if len(snapshots) <= r.keep {
		r.log.Info().Int("snapshots", len(snapshots)).Int("keep", r.keep).Msg("no cleanup needed")
		return 0, nil
	}

	deleted := 0
	for _, f := range snapshots[r.keep:] {
		if err := r.store.Delete(ctx, f.ID); err != nil {
			r.log.Error().Err(err).Str("snapshot", f.Name).Msg("failed to delete old backup")
			continue
		}
		r.log.Info().Str("snapshot", f.Name).Msg("deleted old backup")
		deleted++
	}
	return deleted, nil
}
