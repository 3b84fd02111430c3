package sync

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"

	"github.com/wilterson/auto-backup-manjaro/internal/logging"
	"github.com/wilterson/auto-backup-manjaro/internal/remote"
)

// Uploader mirrors a local directory tree into a dated snapshot folder on
// the remote. The walk is strictly sequential; the remote calls it makes are
// the only I/O.
type Uploader struct {
	store    remote.Storage
	log      zerolog.Logger
	Progress bool
}

// NewUploader creates an uploader backed by the given storage.
func NewUploader(store remote.Storage) *Uploader {
	return &Uploader{
		store: store,
		log:   logging.GetLogger("sync.uploader"),
	}
}

// UploadResult aggregates one upload pass.
type UploadResult struct {
	Snapshot string
	FolderID string
	Uploaded int
	Failed   int
	Bytes    int64
}

type uploadDir struct {
	localPath string
	parentID  string
}

// Upload reproduces the tree rooted at localRoot under a new remote folder
// named snapshot, inside parentID. Files matching an existing remote name
// within the same parent are updated in place; everything else is created.
// Individual file failures are logged, counted and skipped.
func (u *Uploader) Upload(ctx context.Context, localRoot, parentID, snapshot string) (*UploadResult, error) {
	info, err := os.Stat(localRoot)
	if err != nil {
		return nil, fmt.Errorf("local folder not found: %s", localRoot)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", localRoot)
	}

	target, err := findOrCreateFolder(ctx, u.store, parentID, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot folder %s: %w", snapshot, err)
	}

	result := &UploadResult{Snapshot: snapshot, FolderID: target.ID}

	var bar *pb.ProgressBar
	if u.Progress {
		bar = pb.StartNew(countFiles(localRoot))
		defer bar.Finish()
	}

	// Explicit worklist instead of recursion; pathological tree depth
	// should not hit the stack.
	stack := []uploadDir{{localPath: localRoot, parentID: target.ID}}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir.localPath)
		if err != nil {
			u.log.Error().Err(err).Str("path", dir.localPath).Msg("failed to read directory")
			result.Failed += countFiles(dir.localPath)
			continue
		}

		for _, entry := range entries {
			localPath := filepath.Join(dir.localPath, entry.Name())

			if entry.IsDir() {
				sub, err := findOrCreateFolder(ctx, u.store, dir.parentID, entry.Name())
				if err != nil {
					u.log.Error().Err(err).Str("path", localPath).Msg("failed to create remote folder, skipping subtree")
					result.Failed += countFiles(localPath)
					continue
				}
				stack = append(stack, uploadDir{localPath: localPath, parentID: sub.ID})
				continue
			}

			size, err := u.uploadFile(ctx, localPath, dir.parentID, entry.Name())
			if err != nil {
				u.log.Error().Err(err).Str("path", localPath).Msg("upload failed")
				result.Failed++
			} else {
				result.Uploaded++
				result.Bytes += size
			}
			if bar != nil {
				bar.Increment()
			}
		}
	}

	return result, nil
}

// uploadFile creates or updates one remote file, keyed by name within the
// parent folder. Matching is by name only, not content or full relative
// path: a file living remotely under the wrong parent is not detected.
func (u *Uploader) uploadFile(ctx context.Context, localPath, parentID, name string) (int64, error) {
	existing, err := u.store.FindChild(ctx, parentID, name)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	contentType := contentTypeFor(name)
	if existing != nil && !existing.Folder {
		if err := u.store.UpdateFile(ctx, existing.ID, contentType, f, info.Size()); err != nil {
			return 0, err
		}
		u.log.Debug().Str("file", name).Msg("updated")
		return info.Size(), nil
	}

	if _, err := u.store.CreateFile(ctx, parentID, name, contentType, f, info.Size()); err != nil {
		return 0, err
	}
	u.log.Debug().Str("file", name).Msg("uploaded")
	return info.Size(), nil
}

func findOrCreateFolder(ctx context.Context, store remote.Storage, parentID, name string) (*remote.Node, error) {
	existing, err := store.FindChild(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Folder {
		return existing, nil
	}
	return store.CreateFolder(ctx, parentID, name)
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// countFiles walks a tree and counts regular files, for progress totals and
// for tallying skipped subtrees as failed.
func countFiles(root string) int {
	count := 0
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				stack = append(stack, filepath.Join(dir, entry.Name()))
			} else {
				count++
			}
		}
	}
	return count
}
