package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

// Folders do not exist in object storage; each folder is represented by a
// zero-byte marker object so empty folders survive and carry a creation time.
const dirMarker = ".dir"

// Deleted nodes are moved under this prefix instead of being erased, keeping
// the recoverable-delete contract of the Drive backend.
const trashPrefix = ".trash/"

// S3 implements Storage on any S3-compatible endpoint. Node IDs are object
// keys; folder IDs end with "/".
type S3 struct {
	client *minio.Client
	bucket string
	root   string
}

// NewS3 builds an S3 client from static credentials.
func NewS3(cfg config.S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       true,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	logger := logging.GetLogger("remote.s3")
	logger.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Msg("connected to S3 endpoint")

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		root:   normalizePrefix(cfg.Prefix),
	}, nil
}

func (s *S3) List(ctx context.Context, parentID string) ([]Node, error) {
	prefix := s.resolve(parentID)

	var nodes []Node
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: false}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == dirMarker || name == "" || strings.HasPrefix(name, trashPrefix) {
			continue
		}
		if strings.HasSuffix(obj.Key, "/") {
			nodes = append(nodes, Node{
				ID:        obj.Key,
				Name:      strings.TrimSuffix(name, "/"),
				Folder:    true,
				CreatedAt: s.folderCreatedAt(ctx, obj.Key),
			})
			continue
		}
		nodes = append(nodes, Node{
			ID:        obj.Key,
			Name:      path.Base(obj.Key),
			CreatedAt: obj.LastModified,
		})
	}
	return nodes, nil
}

func (s *S3) FindChild(ctx context.Context, parentID, name string) (*Node, error) {
	nodes, err := s.List(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Name == name {
			node := n
			return &node, nil
		}
	}
	return nil, nil
}

func (s *S3) ListFolders(ctx context.Context, parentID, prefix string) ([]Node, error) {
	nodes, err := s.List(ctx, parentID)
	if err != nil {
		return nil, err
	}
	var out []Node
	for _, n := range nodes {
		if n.Folder && strings.HasPrefix(n.Name, prefix) {
			out = append(out, n)
		}
	}
	sortByNameDesc(out)
	return out, nil
}

func (s *S3) LatestFolder(ctx context.Context, parentID, prefix string) (*Node, error) {
	folders, err := s.ListFolders(ctx, parentID, prefix)
	if err != nil {
		return nil, err
	}
	var latest *Node
	for i := range folders {
		if latest == nil || folders[i].CreatedAt.After(latest.CreatedAt) {
			latest = &folders[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	node := *latest
	return &node, nil
}

func (s *S3) CreateFolder(ctx context.Context, parentID, name string) (*Node, error) {
	id := s.resolve(parentID) + name + "/"
	_, err := s.client.PutObject(ctx, s.bucket, id+dirMarker, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return &Node{ID: id, Name: name, Folder: true, CreatedAt: time.Now()}, nil
}

func (s *S3) CreateFile(ctx context.Context, parentID, name, contentType string, r io.Reader, size int64) (*Node, error) {
	id := s.resolve(parentID) + name
	_, err := s.client.PutObject(ctx, s.bucket, id, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return &Node{ID: id, Name: name, CreatedAt: time.Now()}, nil
}

func (s *S3) UpdateFile(ctx context.Context, id, contentType string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, id, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", id, err)
	}
	return nil
}

func (s *S3) Download(ctx context.Context, id string, w io.Writer) error {
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", id, err)
	}
	defer obj.Close()

	_, err = io.Copy(w, obj)
	return err
}

// Delete moves the object, or every object under a folder prefix, into the
// trash prefix.
func (s *S3) Delete(ctx context.Context, id string) error {
	if !strings.HasSuffix(id, "/") {
		return s.trash(ctx, id)
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: id, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list %s: %w", id, obj.Err)
		}
		if err := s.trash(ctx, obj.Key); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3) trash(ctx context.Context, key string) error {
	dst := s.root + trashPrefix + strings.TrimPrefix(key, s.root)
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: key},
	)
	if err != nil {
		return fmt.Errorf("failed to trash %s: %w", key, err)
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *S3) resolve(parentID string) string {
	if parentID == "" {
		return s.root
	}
	return parentID
}

func (s *S3) folderCreatedAt(ctx context.Context, id string) time.Time {
	info, err := s.client.StatObject(ctx, s.bucket, id+dirMarker, minio.StatObjectOptions{})
	if err != nil {
		return time.Time{}
	}
	return info.LastModified
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func sortByNameDesc(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name > nodes[j].Name })
}
