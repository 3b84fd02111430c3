package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilterson/auto-backup-manjaro/internal/remote"
)

func TestLatestPicksNewestByCreation(t *testing.T) {
	store := remote.NewMemory()
	store.AddFolder("root", "backup_202401010900")
	store.AddFolder("root", "backup_202401021000")
	store.AddFolder("root", "other")

	latest, err := NewDownloader(store).Latest(context.Background(), "root")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "backup_202401021000", latest.Name)
}

func TestLatestEmptyRemote(t *testing.T) {
	store := remote.NewMemory()
	latest, err := NewDownloader(store).Latest(context.Background(), "root")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"fish-data/fish_history":             "- cmd: git status\n",
		"fish-data/config/config.fish":       "abbr g git\n",
		"fish-data/config/functions/ll.fish": "function ll\n    ls -la $argv\nend\n",
		"cursor-data/_global/argv.json":      "{\"enable-crash-reporter\": false}",
	}
	for rel, content := range files {
		writeFile(t, filepath.Join(src, filepath.FromSlash(rel)), content)
	}

	store := remote.NewMemory()
	ctx := context.Background()
	_, err := NewUploader(store).Upload(ctx, src, "root", "backup_202401010900")
	require.NoError(t, err)

	down := NewDownloader(store)
	latest, err := down.Latest(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, latest)

	dst := t.TempDir()
	res, err := down.Download(ctx, latest, dst)
	require.NoError(t, err)
	assert.Equal(t, len(files), res.Downloaded)
	assert.Zero(t, res.Failed)

	for rel, content := range files {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, content, string(data), rel)
	}
}

func TestDownloadOverwritesExistingFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "settings.json"), "remote")

	store := remote.NewMemory()
	ctx := context.Background()
	_, err := NewUploader(store).Upload(ctx, src, "root", "backup_202401010900")
	require.NoError(t, err)

	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "settings.json"), "stale local")

	down := NewDownloader(store)
	latest, err := down.Latest(ctx, "root")
	require.NoError(t, err)
	_, err = down.Download(ctx, latest, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}

func TestDownloadFileFailureCounted(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "good.txt"), "fine")
	writeFile(t, filepath.Join(src, "gone.txt"), "poof")

	store := remote.NewMemory()
	ctx := context.Background()
	_, err := NewUploader(store).Upload(ctx, src, "root", "backup_202401010900")
	require.NoError(t, err)
	store.DownloadErr["gone.txt"] = errors.New("read timeout")

	down := NewDownloader(store)
	latest, err := down.Latest(ctx, "root")
	require.NoError(t, err)

	dst := t.TempDir()
	res, err := down.Download(ctx, latest, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 1, res.Failed)

	data, err := os.ReadFile(filepath.Join(dst, "good.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fine", string(data))
}
