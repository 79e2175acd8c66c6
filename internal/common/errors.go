package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrLLM          = errors.New("llm error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DocumentOpenError means the document is missing, unreadable or structurally invalid.
// It is fatal to the extraction run.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %q: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// UnsupportedFormatError rejects input that is not a PDF by extension or signature.
type UnsupportedFormatError struct {
	Filename string
	Reason   string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: %s", e.Filename, e.Reason)
}

// Unwrap lets callers treat format rejections as invalid input.
func (e *UnsupportedFormatError) Unwrap() error { return ErrInvalidInput }

// PageExtractionError is a digital text extraction failure on one page.
type PageExtractionError struct {
	PageIndex int
	Err       error
}

func (e *PageExtractionError) Error() string {
	return fmt.Sprintf("page %d: digital extraction: %v", e.PageIndex, e.Err)
}

func (e *PageExtractionError) Unwrap() error { return e.Err }

// OCRUnavailableError means no OCR engine could be initialized.
type OCRUnavailableError struct {
	Engine string
	Err    error
}

func (e *OCRUnavailableError) Error() string {
	return fmt.Sprintf("ocr engine %q unavailable: %v", e.Engine, e.Err)
}

func (e *OCRUnavailableError) Unwrap() error { return e.Err }

// OCRInferenceError is a render or recognition failure on one page.
type OCRInferenceError struct {
	PageIndex int
	Err       error
}

func (e *OCRInferenceError) Error() string {
	return fmt.Sprintf("page %d: ocr: %v", e.PageIndex, e.Err)
}

func (e *OCRInferenceError) Unwrap() error { return e.Err }

// IsPageLevel reports whether err only affects a single page and can be recovered.
func IsPageLevel(err error) bool {
	var pe *PageExtractionError
	var oe *OCRInferenceError
	return errors.As(err, &pe) || errors.As(err, &oe)
}
