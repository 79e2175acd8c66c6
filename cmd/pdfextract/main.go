// Command pdfextract extracts PDF text with OCR fallback and generates quizzes
// from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/core"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

var (
	verbose   bool
	noOCR     bool
	ocrLang   string
	ocrDPI    int
	backend   string
	ocrEngine string
)

var rootCmd = &cobra.Command{
	Use:           "pdfextract",
	Short:         "Extract text from PDFs, using OCR for scanned pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// buildExtractor is replaced in tests.
var buildExtractor = func(cfg common.ExtractionConfig, logger *slog.Logger) (pipeline.Extractor, func() error, error) {
	p, closeFn, err := core.BuildExtractor(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, closeFn, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
	pf.BoolVar(&noOCR, "no-ocr", false, "disable the OCR fallback; pages without text are reported empty")
	pf.StringVar(&ocrLang, "lang", "", "OCR language (default from config, \"en\")")
	pf.IntVar(&ocrDPI, "dpi", 0, "render resolution for OCR (default from config)")
	pf.StringVar(&backend, "backend", "", "digital text backend: pdftotext or native")
	pf.StringVar(&ocrEngine, "engine", "", "OCR engine: tesseract or gosseract")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the shared configuration and applies the command-line overrides.
func loadConfig() (*common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	e := &cfg.Extraction
	if noOCR {
		e.OCREnabled = false
	}
	if ocrLang != "" {
		e.OCRLanguage = ocrLang
	}
	if ocrDPI > 0 {
		e.RenderResolution = ocrDPI
	}
	if backend != "" {
		e.TextBackend = backend
	}
	if ocrEngine != "" {
		e.OCREngine = ocrEngine
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
