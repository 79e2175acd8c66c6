package core

import (
	"log/slog"

	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
	"github.com/joseph-ayodele/quizgen/internal/ocr"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

// BuildExtractor assembles the text backend, the OCR fallback (when enabled) and
// the pipeline from the extraction settings. The returned func releases the OCR pool.
func BuildExtractor(cfg common.ExtractionConfig, logger *slog.Logger) (*pipeline.Pipeline, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runner := cmdexec.New(logger)

	text, err := document.NewTextExtractor(cfg.TextBackend, cfg.Pdftotext, runner, logger)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() error { return nil }
	var engine pipeline.OCREngine
	if cfg.OCREnabled {
		fallback, err := ocr.NewFromConfig(cfg, runner, logger)
		if err != nil {
			return nil, nil, err
		}
		engine = fallback
		closeFn = fallback.Close
	}

	logger.Info("extractor.ready",
		"text_backend", cfg.TextBackend,
		"ocr_enabled", cfg.OCREnabled,
		"ocr_engine", cfg.OCREngine,
		"ocr_language", cfg.OCRLanguage,
		"dpi", cfg.RenderResolution,
	)
	return pipeline.New(pipeline.ConfigFrom(cfg), text, engine, logger), closeFn, nil
}
