package document

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

// TextExtractor returns the embedded text of a page. Internal whitespace is preserved.
type TextExtractor interface {
	ExtractDigital(ctx context.Context, page Page) (string, error)
}

// PdftotextExtractor shells out to poppler's pdftotext for a single page.
type PdftotextExtractor struct {
	bin    string
	runner cmdexec.Runner
	logger *slog.Logger
}

// NewPdftotextExtractor builds a pdftotext-backed extractor. An empty bin means "pdftotext".
func NewPdftotextExtractor(bin string, runner cmdexec.Runner, logger *slog.Logger) *PdftotextExtractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = cmdexec.New(logger)
	}
	return &PdftotextExtractor{bin: bin, runner: runner, logger: logger}
}

func (e *PdftotextExtractor) ExtractDigital(ctx context.Context, page Page) (string, error) {
	if err := checkPage(page); err != nil {
		return "", err
	}
	n := strconv.Itoa(page.Number())
	// pdftotext -f N -l N -enc UTF-8 -eol unix <file> -
	out, errb, err := e.runner.Run(ctx, nil, e.bin, "-f", n, "-l", n, "-enc", "UTF-8", "-eol", "unix", page.Path(), "-")
	if err != nil {
		return "", &common.PageExtractionError{
			PageIndex: page.Index,
			Err:       fmt.Errorf("pdftotext: %w: %s", err, cmdexec.Truncate(strings.TrimSpace(string(errb)), 512)),
		}
	}
	return trimPageBreak(string(out)), nil
}

// NativeTextExtractor reads text with the pure-Go ledongthuc/pdf reader. It needs no binaries.
type NativeTextExtractor struct {
	logger *slog.Logger
}

func NewNativeTextExtractor(logger *slog.Logger) *NativeTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeTextExtractor{logger: logger}
}

func (e *NativeTextExtractor) ExtractDigital(ctx context.Context, page Page) (text string, err error) {
	if err := checkPage(page); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", &common.PageExtractionError{PageIndex: page.Index, Err: err}
	}
	r, err := page.doc.nativeReader()
	if err != nil {
		return "", &common.PageExtractionError{PageIndex: page.Index, Err: fmt.Errorf("native reader: %w", err)}
	}

	// the reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("native.extract.panic", "page_index", page.Index, "panic", rec)
			text, err = "", &common.PageExtractionError{PageIndex: page.Index, Err: fmt.Errorf("malformed page content: %v", rec)}
		}
	}()

	p := r.Page(page.Number())
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", &common.PageExtractionError{PageIndex: page.Index, Err: err}
	}
	return text, nil
}

// NewTextExtractor picks the backend named by the text_backend setting.
func NewTextExtractor(backend, pdftotextBin string, runner cmdexec.Runner, logger *slog.Logger) (TextExtractor, error) {
	switch backend {
	case "", constants.TextBackendPdftotext:
		return NewPdftotextExtractor(pdftotextBin, runner, logger), nil
	case constants.TextBackendNative:
		return NewNativeTextExtractor(logger), nil
	default:
		return nil, fmt.Errorf("unknown text backend %q", backend)
	}
}

func checkPage(page Page) error {
	if page.doc == nil {
		return &common.PageExtractionError{PageIndex: page.Index, Err: fmt.Errorf("page has no document")}
	}
	if page.Index < 0 || page.Index >= page.doc.pageCount {
		return &common.PageExtractionError{
			PageIndex: page.Index,
			Err:       fmt.Errorf("page index out of range [0, %d)", page.doc.pageCount),
		}
	}
	return nil
}

// pdftotext ends every page with a form feed.
func trimPageBreak(s string) string {
	return strings.TrimRight(s, "\f")
}
