package ocr

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

// NewFromConfig wires renderer, engine factory and pool from the extraction settings.
func NewFromConfig(cfg common.ExtractionConfig, runner cmdexec.Runner, logger *slog.Logger) (*Fallback, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dpi := cfg.RenderResolution
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	var factory Factory
	switch cfg.OCREngine {
	case "", constants.OCREngineTesseract:
		factory = NewTesseractFactory(TesseractConfig{
			Binary:        cfg.Tesseract,
			Language:      cfg.OCRLanguage,
			TessdataDir:   cfg.TessdataDir,
			PSM:           cfg.PSM,
			OEM:           cfg.OEM,
			DPI:           dpi,
			MinConfidence: cfg.OCRMinConfidence,
		}, runner, logger)
	case constants.OCREngineGosseract:
		factory = NewGosseractFactory(GosseractConfig{
			Language:    cfg.OCRLanguage,
			TessdataDir: cfg.TessdataDir,
			PSM:         cfg.PSM,
			DPI:         dpi,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCREngine)
	}

	name := cfg.OCREngine
	if name == "" {
		name = constants.OCREngineTesseract
	}
	renderer := NewPdftoppmRenderer(cfg.Pdftoppm, dpi, runner, logger)
	pool := NewPool(name, factory, cfg.OCRPoolSize, logger)
	return NewFallback(renderer, pool, logger), nil
}
