package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

const msgOnlyPDF = "Only PDF files are allowed"

type errorBody struct {
	Detail string `json:"detail"`
}

// statusFor maps domain errors onto HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	var (
		ufe    *common.UnsupportedFormatError
		doe    *common.DocumentOpenError
		oue    *common.OCRUnavailableError
		appErr *common.AppError
		mbe    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ufe):
		return http.StatusBadRequest, msgOnlyPDF
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.As(err, &doe):
		return http.StatusUnprocessableEntity, "could not read PDF: " + doe.Err.Error()
	case errors.As(err, &oue):
		return http.StatusServiceUnavailable, "OCR is unavailable"
	case errors.Is(err, common.ErrInvalidInput):
		if errors.As(err, &appErr) {
			return http.StatusBadRequest, appErr.Message
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrLLM):
		return http.StatusBadGateway, "question generation failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := statusFor(err)
	if status >= 500 {
		logger.Error("http.request.failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("http.request.rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Detail: msg})
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
