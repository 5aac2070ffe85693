package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"github.com/nan5895/church-budget-app/internal/blob"
	sheetsgoogle "github.com/nan5895/church-budget-app/internal/sheets/google"
)

// Client uploads receipt images into a shared Google Drive folder.
type Client struct {
	svc      *gdrive.Service
	folderID string
}

var _ blob.Uploader = (*Client)(nil)

// NewFromEnv creates a Drive client from the shared Google service
// account credential.
// Required: GOOGLE_DRIVE_FOLDER_ID (the receipts folder, shared with
// the service account).
func NewFromEnv(ctx context.Context) (*Client, error) {
	folderID := strings.TrimSpace(os.Getenv("GOOGLE_DRIVE_FOLDER_ID"))
	if folderID == "" {
		return nil, errors.New("missing GOOGLE_DRIVE_FOLDER_ID")
	}

	credentialsJSON, err := sheetsgoogle.ServiceAccountJSON(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc, folderID: folderID}, nil
}

// Upload creates the file inside the configured folder and returns its
// view link. The anyone/reader share is best effort: on shared drives
// the folder's own sharing already governs access, so a permission
// failure is logged and swallowed.
func (c *Client) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	if c.svc == nil {
		return "", errors.New("drive service not initialized")
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	meta := &gdrive.File{
		Name:    filename,
		Parents: []string{c.folderID},
	}
	created, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		SupportsAllDrives(true).
		Fields("id, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", filename, err)
	}

	perm := &gdrive.Permission{Type: "anyone", Role: "reader"}
	if _, err := c.svc.Permissions.Create(created.Id, perm).
		SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		slog.WarnContext(ctx, "Could not share uploaded receipt", "file_id", created.Id, "error", err)
	}

	return viewLink(created), nil
}

// viewLink prefers the link Drive reports; some drives omit it, in
// which case the canonical file URL still works.
func viewLink(f *gdrive.File) string {
	if f == nil {
		return ""
	}
	if f.WebViewLink != "" {
		return f.WebViewLink
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", f.Id)
}
