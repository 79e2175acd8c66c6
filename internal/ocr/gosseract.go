//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine keeps one libtesseract client loaded for its whole lifetime.
type GosseractEngine struct {
	client *gosseract.Client
	dpi    int
	logger *slog.Logger
}

// NewGosseractFactory returns a Factory that loads libtesseract with the configured
// language and warms it up, so missing language data fails at checkout time.
func NewGosseractFactory(cfg GosseractConfig, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	langs := strings.Split(TesseractLanguage(cfg.Language), "+")
	return func(ctx context.Context) (Engine, error) {
		c := gosseract.NewClient()
		if cfg.TessdataDir != "" {
			if err := c.SetTessdataPrefix(cfg.TessdataDir); err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("set tessdata prefix: %w", err)
			}
		}
		if err := c.SetLanguage(langs...); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
		if cfg.PSM > 0 {
			if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("set page seg mode: %w", err)
			}
		}
		e := &GosseractEngine{client: c, dpi: cfg.DPI, logger: logger}
		if err := e.warmUp(); err != nil {
			_ = c.Close()
			return nil, err
		}
		logger.Debug("ocr.gosseract.ready", "langs", langs, "version", gosseract.Version())
		return e, nil
	}
}

func (e *GosseractEngine) Name() string { return "gosseract" }

// warmUp forces libtesseract to load its models on a blank image.
func (e *GosseractEngine) warmUp() error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		return err
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("warm up: %w", err)
	}
	if _, err := e.client.Text(); err != nil {
		return fmt.Errorf("warm up: %w", err)
	}
	return nil
}

func (e *GosseractEngine) Recognize(ctx context.Context, img []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if e.dpi > 0 {
		if err := e.client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	return linesToFragments(text), nil
}

func (e *GosseractEngine) Close() error {
	return e.client.Close()
}
