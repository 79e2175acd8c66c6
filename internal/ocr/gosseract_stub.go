//go:build !gosseract

package ocr

import (
	"context"
	"errors"
	"log/slog"
)

// NewGosseractFactory returns a Factory that always fails: this binary was built
// without the gosseract tag, so libtesseract is not linked in.
func NewGosseractFactory(_ GosseractConfig, _ *slog.Logger) Factory {
	return func(context.Context) (Engine, error) {
		return nil, errors.New("built without gosseract support (rebuild with -tags gosseract)")
	}
}
