package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wilterson/auto-backup-manjaro/internal/logging"
	"github.com/wilterson/auto-backup-manjaro/internal/remote"
)

// Downloader mirrors the most recent remote snapshot back to local disk.
type Downloader struct {
	store remote.Storage
	log   zerolog.Logger
}

// NewDownloader creates a downloader backed by the given storage.
func NewDownloader(store remote.Storage) *Downloader {
	return &Downloader{
		store: store,
		log:   logging.GetLogger("sync.downloader"),
	}
}

// DownloadResult aggregates one restore pass.
type DownloadResult struct {
	Snapshot   string
	Downloaded int
	Failed     int
	Bytes      int64
}

type downloadDir struct {
	remoteID  string
	localPath string
}

// Latest finds the most recently created snapshot folder under parentID,
// ordered by the remote's own creation timestamp. Returns nil when no
// snapshot exists.
func (d *Downloader) Latest(ctx context.Context, parentID string) (*remote.Node, error) {
	return d.store.LatestFolder(ctx, parentID, SnapshotPrefix)
}

// Download mirrors the subtree of folder into localRoot, creating local
// directories as needed. Local files of the same name are overwritten
// without a backup copy; the per-application restorers are the layer that
// backs existing files up first. Per-file failures are logged and counted.
func (d *Downloader) Download(ctx context.Context, folder *remote.Node, localRoot string) (*DownloadResult, error) {
	result := &DownloadResult{Snapshot: folder.Name}

	stack := []downloadDir{{remoteID: folder.ID, localPath: localRoot}}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := os.MkdirAll(dir.localPath, 0755); err != nil {
			return result, fmt.Errorf("failed to create directory %s: %w", dir.localPath, err)
		}

		nodes, err := d.store.List(ctx, dir.remoteID)
		if err != nil {
			d.log.Error().Err(err).Str("path", dir.localPath).Msg("failed to list remote folder")
			result.Failed++
			continue
		}

		for _, node := range nodes {
			localPath := filepath.Join(dir.localPath, node.Name)
			if node.Folder {
				stack = append(stack, downloadDir{remoteID: node.ID, localPath: localPath})
				continue
			}

			size, err := d.downloadFile(ctx, node.ID, localPath)
			if err != nil {
				d.log.Error().Err(err).Str("file", node.Name).Msg("download failed")
				result.Failed++
				continue
			}
			result.Downloaded++
			result.Bytes += size
		}
	}

	return result, nil
}

func (d *Downloader) downloadFile(ctx context.Context, id, localPath string) (int64, error) {
	f, err := os.Create(localPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := d.store.Download(ctx, id, f); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	d.log.Debug().Str("file", localPath).Msg("downloaded")
	return info.Size(), nil
}
