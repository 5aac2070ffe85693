package http

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nan5895/church-budget-app/internal/sheets/memory"
)

type fakeRecognizer struct {
	text string
	err  error
}

func (f fakeRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	return f.text, f.err
}

func multipartReceipt(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func scanRequest(srv *Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestScanReceiptFound(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{
		Recognizer: fakeRecognizer{text: "행복마트\n합계금액 27,190원\n카드번호 1234-****"},
	})

	body, ct := multipartReceipt(t, "receipt", "receipt.jpg", []byte("fake image"))
	rr := scanRequest(srv, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := rr.Body.String()
	if !strings.Contains(got, "27,190") {
		t.Errorf("result missing recognized amount: %s", got)
	}
	if !strings.Contains(got, "행복마트") {
		t.Errorf("result missing raw text: %s", got)
	}
}

func TestScanReceiptNoAmount(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{
		Recognizer: fakeRecognizer{text: "감사합니다\n또 오세요"},
	})

	body, ct := multipartReceipt(t, "receipt", "receipt.jpg", []byte("fake image"))
	rr := scanRequest(srv, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "금액을 자동 인식하지 못했습니다") {
		t.Errorf("result missing no-amount notice: %s", rr.Body.String())
	}
}

func TestScanReceiptEmptyText(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{
		Recognizer: fakeRecognizer{text: ""},
	})

	body, ct := multipartReceipt(t, "receipt", "receipt.jpg", []byte("fake image"))
	rr := scanRequest(srv, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "금액을 자동 인식하지 못했습니다") {
		t.Errorf("result missing no-amount notice: %s", rr.Body.String())
	}
}

func TestScanReceiptServiceError(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{
		Recognizer: fakeRecognizer{err: errors.New("vision unavailable")},
	})

	body, ct := multipartReceipt(t, "receipt", "receipt.jpg", []byte("fake image"))
	rr := scanRequest(srv, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "다시 시도해 주세요") {
		t.Errorf("result missing retry notice: %s", rr.Body.String())
	}
}

func TestScanReceiptNoRecognizer(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	body, ct := multipartReceipt(t, "receipt", "receipt.jpg", []byte("fake image"))
	rr := scanRequest(srv, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "설정되지 않았습니다") {
		t.Errorf("result missing unconfigured notice: %s", rr.Body.String())
	}
}

func TestScanReceiptMissingFile(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{
		Recognizer: fakeRecognizer{text: "합계 5,000원"},
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file attached")
	mw.Close()

	rr := scanRequest(srv, &buf, mw.FormDataContentType())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
}

func TestScanReceiptMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	req := httptest.NewRequest(http.MethodGet, "/receipts/scan", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want 405", rr.Code)
	}
}
