package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
)

// Fallback recognizes the text of pages that carry no embedded text.
type Fallback struct {
	renderer PageRenderer
	pool     *Pool
	logger   *slog.Logger
}

func NewFallback(renderer PageRenderer, pool *Pool, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{renderer: renderer, pool: pool, logger: logger}
}

// ExtractOCR renders the page, recognizes it with a pooled engine and joins the
// fragments with single spaces. Engine initialization failures are returned as
// *common.OCRUnavailableError, everything else page-specific as *common.OCRInferenceError.
func (f *Fallback) ExtractOCR(ctx context.Context, page document.Page) (string, error) {
	start := time.Now()

	img, err := f.renderer.Render(ctx, page)
	if err != nil {
		return "", &common.OCRInferenceError{PageIndex: page.Index, Err: fmt.Errorf("render: %w", err)}
	}

	engine, err := f.pool.Acquire(ctx)
	if err != nil {
		var unavailable *common.OCRUnavailableError
		if errors.As(err, &unavailable) {
			return "", err
		}
		return "", &common.OCRInferenceError{PageIndex: page.Index, Err: fmt.Errorf("acquire engine: %w", err)}
	}

	frags, err := engine.Recognize(ctx, img)
	if err != nil {
		// a failed in-process engine may be left in a bad state
		f.pool.Discard(engine)
		return "", &common.OCRInferenceError{PageIndex: page.Index, Err: err}
	}
	f.pool.Release(engine)

	text := JoinFragments(frags)
	f.logger.Debug("ocr.page.done",
		"page_index", page.Index,
		"engine", engine.Name(),
		"fragments", len(frags),
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// Close releases the pooled engines.
func (f *Fallback) Close() error {
	return f.pool.Close()
}
