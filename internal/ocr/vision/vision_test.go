package vision

import (
	"context"
	"strings"
	"testing"

	gvision "google.golang.org/api/vision/v1"
)

func TestTextFromResponse(t *testing.T) {
	cases := []struct {
		name    string
		resp    *gvision.BatchAnnotateImagesResponse
		want    string
		wantErr bool
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
		{
			name:    "no responses",
			resp:    &gvision.BatchAnnotateImagesResponse{},
			wantErr: true,
		},
		{
			name: "service error",
			resp: &gvision.BatchAnnotateImagesResponse{Responses: []*gvision.AnnotateImageResponse{
				{Error: &gvision.Status{Code: 7, Message: "permission denied"}},
			}},
			wantErr: true,
		},
		{
			// no text at all is a normal result, never an error
			name: "no text",
			resp: &gvision.BatchAnnotateImagesResponse{Responses: []*gvision.AnnotateImageResponse{{}}},
			want: "",
		},
		{
			name: "document text",
			resp: &gvision.BatchAnnotateImagesResponse{Responses: []*gvision.AnnotateImageResponse{
				{FullTextAnnotation: &gvision.TextAnnotation{Text: "합계금액 27,190원"}},
			}},
			want: "합계금액 27,190원",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := textFromResponse(tc.resp)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRecognizeGuards(t *testing.T) {
	c := &Client{}
	if _, err := c.Recognize(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected error with nil service")
	}

	c = &Client{svc: &gvision.Service{}}
	_, err := c.Recognize(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "empty image") {
		t.Fatalf("expected empty image error, got %v", err)
	}
}
