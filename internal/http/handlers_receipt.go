package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nan5895/church-budget-app/internal/log"
	"github.com/nan5895/church-budget-app/internal/receipt"
)

// handleScanReceipt runs OCR over an uploaded receipt image and
// renders the recognized amount. Recognition is advisory: every
// outcome, including failure, leaves the form usable for manual
// entry.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		BadRequest("요청 형식이 올바르지 않습니다").Write(w)
		return
	}

	file, _, err := r.FormFile("receipt")
	if err != nil {
		BadRequest("영수증 파일이 필요합니다").Write(w)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		BadRequest("영수증 파일을 읽을 수 없습니다").Write(w)
		return
	}

	if s.recognizer == nil {
		s.renderScanResult(w, r, map[string]interface{}{
			"State":   "error",
			"Message": "영수증 인식 기능이 설정되지 않았습니다. 금액을 직접 입력해 주세요.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	text, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		s.logger.ErrorContext(ctx, "Receipt recognition failed", log.FieldError, err.Error())
		s.renderScanResult(w, r, map[string]interface{}{
			"State":   "error",
			"Message": "인식 중 오류가 발생했습니다. 다시 시도해 주세요.",
		})
		return
	}

	if strings.TrimSpace(text) == "" {
		s.renderScanResult(w, r, map[string]interface{}{
			"State":   "empty",
			"Message": "금액을 자동 인식하지 못했습니다. 직접 입력해 주세요.",
		})
		return
	}

	result := receipt.Extract(strings.Split(text, "\n"))
	if !result.Found {
		s.renderScanResult(w, r, map[string]interface{}{
			"State":   "empty",
			"Message": "금액을 자동 인식하지 못했습니다. 직접 입력해 주세요.",
			"RawText": text,
		})
		return
	}

	s.logger.InfoContext(ctx, "Receipt amount recognized", log.FieldAmountWon, result.Amount)

	s.renderScanResult(w, r, map[string]interface{}{
		"State":     "found",
		"Amount":    result.Amount,
		"Formatted": result.Formatted,
		"RawText":   text,
	})
}

func (s *Server) renderScanResult(w http.ResponseWriter, r *http.Request, data map[string]interface{}) {
	if err := s.templates.ExecuteTemplate(w, "scan_result", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Scan result template execution failed", log.FieldError, err.Error())
		http.Error(w, "결과를 표시할 수 없습니다", http.StatusInternalServerError)
	}
}
