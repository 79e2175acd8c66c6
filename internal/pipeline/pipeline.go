// Package pipeline extracts a document's text page by page, falling back to OCR
// for pages without embedded text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
)

// Config controls a Pipeline.
type Config struct {
	OCREnabled        bool
	UnavailablePolicy constants.OCRUnavailablePolicy
	// PageTimeout bounds the work on a single page. Zero means no limit.
	PageTimeout time.Duration
	// MaxPages rejects larger documents. Zero means no limit.
	MaxPages int
}

// ConfigFrom maps the extraction settings onto a pipeline Config.
func ConfigFrom(cfg common.ExtractionConfig) Config {
	return Config{
		OCREnabled:        cfg.OCREnabled,
		UnavailablePolicy: cfg.OCRUnavailablePolicy,
		PageTimeout:       cfg.PageTimeout,
		MaxPages:          cfg.MaxPages,
	}
}

// ParamsKey identifies the settings that change extraction output, so cached
// results are only reused under the same settings.
func ParamsKey(cfg common.ExtractionConfig) string {
	if !cfg.OCREnabled {
		return fmt.Sprintf("backend=%s;ocr=off", cfg.TextBackend)
	}
	return fmt.Sprintf("backend=%s;ocr=%s;lang=%s;dpi=%d;psm=%d;oem=%d;minconf=%g",
		cfg.TextBackend, cfg.OCREngine, cfg.OCRLanguage, cfg.RenderResolution, cfg.PSM, cfg.OEM, cfg.OCRMinConfidence)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOpener replaces the PDF opener.
func WithOpener(o Opener) Option {
	return func(p *Pipeline) { p.opener = o }
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	filename string
}

// WithFilename sets the filename reported in the Result.
func WithFilename(name string) RunOption {
	return func(o *runOptions) {
		if name != "" {
			o.filename = name
		}
	}
}

// ReportedFilename is the filename a Run with opts reports for path.
func ReportedFilename(path string, opts ...RunOption) string {
	ro := runOptions{filename: filepath.Base(path)}
	for _, o := range opts {
		o(&ro)
	}
	return ro.filename
}

// Pipeline runs digital extraction with OCR fallback over every page of a document.
// A Pipeline is safe for concurrent use; each Run owns its document handle.
type Pipeline struct {
	cfg    Config
	opener Opener
	text   document.TextExtractor
	ocr    OCREngine
	logger *slog.Logger
}

// New builds a Pipeline. ocr may be nil when OCR is disabled.
func New(cfg Config, text document.TextExtractor, ocr OCREngine, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UnavailablePolicy == "" {
		cfg.UnavailablePolicy = constants.OCRUnavailableDegrade
	}
	p := &Pipeline{cfg: cfg, opener: PDFOpener, text: text, ocr: ocr, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// runState is per-Run mutable state.
type runState struct {
	ocrAvailable   bool
	unavailableErr error
}

// Run extracts every page of the PDF at path.
//
// Document-level failures (*common.UnsupportedFormatError, *common.DocumentOpenError,
// cancellation, and *common.OCRUnavailableError under the fail policy) abort the run.
// Page-level failures are logged and the page is recorded as empty.
func (p *Pipeline) Run(ctx context.Context, path string, opts ...RunOption) (*Result, error) {
	filename := ReportedFilename(path, opts...)
	logger := common.LoggerFrom(ctx, p.logger).With("filename", filename)
	start := time.Now()

	if err := document.CheckExtension(path); err != nil {
		logger.Warn("pipeline.rejected", "error", err)
		return nil, err
	}

	doc, err := p.opener.Open(ctx, path)
	if err != nil {
		logger.Warn("pipeline.open.failed", "error", err)
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("pipeline.close.failed", "error", cerr)
		}
	}()

	n := doc.PageCount()
	if p.cfg.MaxPages > 0 && n > p.cfg.MaxPages {
		return nil, common.NewAppError("TOO_MANY_PAGES",
			fmt.Sprintf("document has %d pages, limit is %d", n, p.cfg.MaxPages), common.ErrInvalidInput)
	}
	logger.Info("pipeline.run.start", "pages", n, "ocr_enabled", p.ocrEnabled())

	state := &runState{ocrAvailable: p.ocrEnabled()}
	pages := make([]PageResult, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			logger.Info("pipeline.run.cancelled", "page_index", i, "error", err)
			return nil, fmt.Errorf("extraction cancelled before page %d of %d: %w", i+1, n, err)
		}
		pr, err := p.extractPage(ctx, doc.Page(i), state, logger)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pr)
	}

	res := Assemble(filename, pages)
	logger.Info("pipeline.run.ok",
		"pages", n,
		"ocr_pages", res.OCRPages,
		"empty_pages", res.EmptyPages,
		"chars", len(res.FullText),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) ocrEnabled() bool {
	return p.cfg.OCREnabled && p.ocr != nil
}

// pageContext detaches the page from caller cancellation, which is only observed
// between pages, and applies the per-page timeout.
func (p *Pipeline) pageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	pctx := context.WithoutCancel(ctx)
	if p.cfg.PageTimeout > 0 {
		return context.WithTimeout(pctx, p.cfg.PageTimeout)
	}
	return pctx, func() {}
}

func (p *Pipeline) extractPage(ctx context.Context, page document.Page, state *runState, logger *slog.Logger) (PageResult, error) {
	pctx, cancel := p.pageContext(ctx)
	defer cancel()

	var notes []string
	empty := func() PageResult {
		return PageResult{PageIndex: page.Index, Method: MethodEmpty, Note: strings.Join(notes, "; ")}
	}

	text, err := p.text.ExtractDigital(pctx, page)
	if err != nil {
		// a failed page is not a textless page; OCR is only for the latter
		logger.Warn("pipeline.page.digital_failed", "page_index", page.Index, "error", err)
		notes = append(notes, err.Error())
		return empty(), nil
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return PageResult{PageIndex: page.Index, Method: MethodDigital, Text: trimmed}, nil
	}

	if !state.ocrAvailable {
		if state.unavailableErr != nil {
			notes = append(notes, state.unavailableErr.Error())
		}
		return empty(), nil
	}

	ocrText, err := p.ocr.ExtractOCR(pctx, page)
	if err != nil {
		var unavailable *common.OCRUnavailableError
		if errors.As(err, &unavailable) {
			if p.cfg.UnavailablePolicy == constants.OCRUnavailableFail {
				logger.Error("pipeline.ocr.unavailable", "page_index", page.Index, "error", err)
				return PageResult{}, err
			}
			logger.Warn("pipeline.ocr.unavailable_degrading", "page_index", page.Index, "error", err)
			state.ocrAvailable = false
			state.unavailableErr = err
			notes = append(notes, err.Error())
			return empty(), nil
		}
		logger.Warn("pipeline.page.ocr_failed", "page_index", page.Index, "error", err)
		notes = append(notes, err.Error())
		return empty(), nil
	}

	if trimmed := strings.TrimSpace(ocrText); trimmed != "" {
		return PageResult{PageIndex: page.Index, Method: MethodOCR, Text: trimmed}, nil
	}
	return empty(), nil
}
