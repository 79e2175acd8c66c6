package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob records one extraction run for data transfer between layers.
type ExtractJob struct {
	ID           uuid.UUID       `json:"id"`
	ContentHash  string          `json:"content_hash"`
	Filename     string          `json:"filename"`
	ParamsKey    string          `json:"params_key"`
	Source       string          `json:"source"`
	Status       string          `json:"status"`
	PageCount    int             `json:"page_count"`
	OCRPages     int             `json:"ocr_pages"`
	EmptyPages   int             `json:"empty_pages"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// Done reports whether the job has left the RUNNING state.
func (j *ExtractJob) Done() bool { return j.FinishedAt != nil }
