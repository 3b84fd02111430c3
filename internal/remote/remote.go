// Package remote abstracts the cloud storage service behind a narrow
// capability interface so the sync logic can run against Google Drive, any
// S3-compatible endpoint, or an in-memory fake in tests.
package remote

import (
	"context"
	"io"
	"time"
)

// Node is a file or folder on the remote service. The ID is opaque and only
// meaningful to the backend that produced it.
type Node struct {
	ID        string
	Name      string
	Folder    bool
	CreatedAt time.Time
}

// Storage is the set of primitives the uploader, retention policy and
// downloader need. Lookup methods return (nil, nil) when nothing matches.
// Delete has trash semantics: the node stays recoverable on the service.
type Storage interface {
	// List returns the direct children of a folder. An empty parentID
	// addresses the service root.
	List(ctx context.Context, parentID string) ([]Node, error)

	// FindChild looks up a child by name within a parent. Name+parent is
	// the only matching key; content is never compared.
	FindChild(ctx context.Context, parentID, name string) (*Node, error)

	// ListFolders returns child folders whose name starts with prefix,
	// ordered by name descending.
	ListFolders(ctx context.Context, parentID, prefix string) ([]Node, error)

	// LatestFolder returns the child folder with the given name prefix
	// that was created most recently, by the service's own creation time.
	LatestFolder(ctx context.Context, parentID, prefix string) (*Node, error)

	CreateFolder(ctx context.Context, parentID, name string) (*Node, error)
	CreateFile(ctx context.Context, parentID, name, contentType string, r io.Reader, size int64) (*Node, error)
	UpdateFile(ctx context.Context, id, contentType string, r io.Reader, size int64) error
	Download(ctx context.Context, id string, w io.Writer) error
	Delete(ctx context.Context, id string) error
}
