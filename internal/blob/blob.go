package blob

import "context"

// Uploader stores a receipt image and returns a URL people can open.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) (url string, err error)
}
