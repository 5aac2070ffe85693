package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	"github.com/nan5895/church-budget-app/internal/ocr"
	sheetsgoogle "github.com/nan5895/church-budget-app/internal/sheets/google"
)

// Client recognizes receipt text with the Google Cloud Vision API.
type Client struct {
	svc *gvision.Service
}

var _ ocr.TextRecognizer = (*Client)(nil)

// NewFromEnv creates a Vision client from the shared Google service
// account credential.
func NewFromEnv(ctx context.Context) (*Client, error) {
	credentialsJSON, err := sheetsgoogle.ServiceAccountJSON(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gvision.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gvision.CloudVisionScope))
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Recognize runs document text detection over the image with Korean and
// English language hints and returns the full recognized text. An empty
// string with a nil error means the service saw no text at all.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	if c.svc == nil {
		return "", errors.New("vision service not initialized")
	}
	if len(image) == 0 {
		return "", errors.New("empty image")
	}

	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:        &gvision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features:     []*gvision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			ImageContext: &gvision.ImageContext{LanguageHints: []string{"ko", "en"}},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	return textFromResponse(resp)
}

// textFromResponse pulls the document text out of a batch response,
// keeping the no-signal and failure cases apart.
func textFromResponse(resp *gvision.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return "", errors.New("empty annotate response")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision error %d: %s", r.Error.Code, r.Error.Message)
	}
	if r.FullTextAnnotation == nil {
		return "", nil
	}
	return r.FullTextAnnotation.Text, nil
}
