package ocr

import "context"

// TextRecognizer extracts machine-readable text from an image.
//
// A service failure is an error. Recognizing no text in a perfectly
// good image is not: that returns ("", nil), and callers must treat
// the two outcomes differently.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
