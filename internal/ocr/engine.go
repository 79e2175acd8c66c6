// Package ocr renders PDF pages to PNG and recognizes their text with a pooled OCR engine.
package ocr

import (
	"context"
)

// Engine recognizes text in one PNG image. Implementations need not be safe for
// concurrent use; the Pool hands each instance to one caller at a time.
type Engine interface {
	Name() string
	// Recognize returns text fragments in the engine's reading order.
	Recognize(ctx context.Context, png []byte) ([]string, error)
	Close() error
}

// Factory creates and initializes an engine. It is the expensive step: model and
// language data are loaded here, once per pooled instance.
type Factory func(ctx context.Context) (Engine, error)
