package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive talks to Google Drive with a pre-provisioned service account.
type Drive struct {
	srv *drive.Service
}

// NewDrive builds a Drive client from a service-account credentials file.
// A missing credentials file is a fatal configuration error.
func NewDrive(ctx context.Context, credentialsFile string) (*Drive, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("credentials file %s not found: share a Drive folder with a service account and point GOOGLE_CREDENTIALS_FILE at its JSON key", credentialsFile)
	}

	srv, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Drive client: %w", err)
	}

	logger := logging.GetLogger("remote.drive")
	logger.Debug().Msg("connected to Google Drive")
	return &Drive{srv: srv}, nil
}

func (d *Drive) List(ctx context.Context, parentID string) ([]Node, error) {
	q := "trashed=false"
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	return d.query(ctx, q, "")
}

func (d *Drive) FindChild(ctx context.Context, parentID, name string) (*Node, error) {
	q := fmt.Sprintf("name='%s' and trashed=false", escapeQuery(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	nodes, err := d.query(ctx, q, "")
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &nodes[0], nil
}

func (d *Drive) ListFolders(ctx context.Context, parentID, prefix string) ([]Node, error) {
	q := fmt.Sprintf("name contains '%s' and mimeType='%s' and trashed=false", escapeQuery(prefix), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	nodes, err := d.query(ctx, q, "name desc")
	if err != nil {
		return nil, err
	}
	// "contains" matches anywhere in the name; keep strict prefix matches.
	out := nodes[:0]
	for _, n := range nodes {
		if strings.HasPrefix(n.Name, prefix) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (d *Drive) LatestFolder(ctx context.Context, parentID, prefix string) (*Node, error) {
	q := fmt.Sprintf("name contains '%s' and mimeType='%s' and trashed=false", escapeQuery(prefix), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	nodes, err := d.query(ctx, q, "createdTime desc")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if strings.HasPrefix(n.Name, prefix) {
			return &n, nil
		}
	}
	return nil, nil
}

func (d *Drive) CreateFolder(ctx context.Context, parentID, name string) (*Node, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := d.srv.Files.Create(meta).
		Fields("id, name, createdTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return driveNode(f), nil
}

func (d *Drive) CreateFile(ctx context.Context, parentID, name, contentType string, r io.Reader, size int64) (*Node, error) {
	meta := &drive.File{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := d.srv.Files.Create(meta).
		Media(r, googleapi.ContentType(contentType)).
		Fields("id, name, createdTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return driveNode(f), nil
}

func (d *Drive) UpdateFile(ctx context.Context, id, contentType string, r io.Reader, size int64) error {
	_, err := d.srv.Files.Update(id, &drive.File{}).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", id, err)
	}
	return nil
}

func (d *Drive) Download(ctx context.Context, id string, w io.Writer) error {
	resp, err := d.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("failed to download file %s: %w", id, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// Delete moves a node to the Drive trash, so snapshots stay recoverable
// within the service's own retention window.
func (d *Drive) Delete(ctx context.Context, id string) error {
	_, err := d.srv.Files.Update(id, &drive.File{Trashed: true}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash %s: %w", id, err)
	}
	return nil
}

func (d *Drive) query(ctx context.Context, q, orderBy string) ([]Node, error) {
	var nodes []Node
	pageToken := ""
	for {
		call := d.srv.Files.List().
			Q(q).
			Spaces("drive").
			Fields("nextPageToken, files(id, name, mimeType, createdTime)").
			PageSize(1000).
			Context(ctx)
		if orderBy != "" {
			call = call.OrderBy(orderBy)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("drive query failed: %w", err)
		}
		for _, f := range res.Files {
			nodes = append(nodes, *driveNode(f))
		}
		if res.NextPageToken == "" {
			return nodes, nil
		}
		pageToken = res.NextPageToken
	}
}

func driveNode(f *drive.File) *Node {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return &Node{
		ID:        f.Id,
		Name:      f.Name,
		Folder:    f.MimeType == folderMimeType,
		CreatedAt: created,
	}
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
