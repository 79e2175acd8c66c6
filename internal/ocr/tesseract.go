package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
)

// TesseractConfig configures the tesseract CLI engine.
type TesseractConfig struct {
	Binary      string // default "tesseract"
	Language    string // configured language, e.g. "en" or "en+de"
	TessdataDir string
	PSM         int // 0 = engine default
	OEM         int // 0 = engine default
	DPI         int // resolution the page was rendered at
	// MinConfidence (0..100) drops low-confidence words. Zero requests plain text.
	MinConfidence float64
}

// TesseractEngine runs the tesseract binary once per image, feeding the PNG on stdin.
type TesseractEngine struct {
	cfg    TesseractConfig
	lang   string
	runner cmdexec.Runner
	logger *slog.Logger
}

// NewTesseractFactory returns a Factory whose engines check that the language data
// is installed before they are handed out.
func NewTesseractFactory(cfg TesseractConfig, runner cmdexec.Runner, logger *slog.Logger) Factory {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = cmdexec.New(logger)
	}
	return func(ctx context.Context) (Engine, error) {
		e := &TesseractEngine{
			cfg:    cfg,
			lang:   TesseractLanguage(cfg.Language),
			runner: runner,
			logger: logger,
		}
		if err := e.init(ctx); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) init(ctx context.Context) error {
	args := []string{"--list-langs"}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, nil, e.cfg.Binary, args...)
	if err != nil {
		return fmt.Errorf("%s --list-langs: %w: %s", e.cfg.Binary, err, cmdexec.Truncate(strings.TrimSpace(string(errb)), 512))
	}

	// older releases print the list on stderr
	installed := parseLangList(string(out) + "\n" + string(errb))
	for _, want := range strings.Split(e.lang, "+") {
		if _, ok := installed[want]; !ok {
			return fmt.Errorf("language data %q is not installed", want)
		}
	}
	e.logger.Debug("ocr.tesseract.ready", "lang", e.lang, "installed", len(installed))
	return nil
}

func parseLangList(s string) map[string]struct{} {
	langs := map[string]struct{}{}
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "List of available languages") || strings.Contains(ln, " ") {
			continue
		}
		langs[ln] = struct{}{}
	}
	return langs
}

func (e *TesseractEngine) Recognize(ctx context.Context, png []byte) ([]string, error) {
	// tesseract stdin stdout -l <lang> [opts] [tsv]
	args := []string{"stdin", "stdout", "-l", e.lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(e.cfg.DPI))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	tsv := e.cfg.MinConfidence > 0
	if tsv {
		args = append(args, "tsv")
	}

	out, errb, err := e.runner.Run(ctx, bytes.NewReader(png), e.cfg.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, cmdexec.Truncate(strings.TrimSpace(string(errb)), 512))
	}

	if !tsv {
		return linesToFragments(string(out)), nil
	}
	frags, meanConf := parseTSV(string(out), e.cfg.MinConfidence)
	e.logger.Debug("ocr.tesseract.tsv", "fragments", len(frags), "mean_conf", meanConf)
	return frags, nil
}

// Close is a no-op; each recognition is a separate process.
func (e *TesseractEngine) Close() error { return nil }
