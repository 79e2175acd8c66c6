package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
	"github.com/joseph-ayodele/quizgen/internal/document"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 200

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PageRenderer rasterizes a page to PNG bytes.
type PageRenderer interface {
	Render(ctx context.Context, page document.Page) ([]byte, error)
}

// PdftoppmRenderer renders through poppler's pdftoppm, reading the PNG from stdout.
type PdftoppmRenderer struct {
	bin    string
	dpi    int
	runner cmdexec.Runner
	logger *slog.Logger
}

func NewPdftoppmRenderer(bin string, dpi int, runner cmdexec.Runner, logger *slog.Logger) *PdftoppmRenderer {
	if bin == "" {
		bin = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = cmdexec.New(logger)
	}
	return &PdftoppmRenderer{bin: bin, dpi: dpi, runner: runner, logger: logger}
}

// DPI is the resolution pages are rendered at.
func (r *PdftoppmRenderer) DPI() int { return r.dpi }

func (r *PdftoppmRenderer) Render(ctx context.Context, page document.Page) ([]byte, error) {
	n := strconv.Itoa(page.Number())
	// pdftoppm -f N -l N -r DPI -png -singlefile <file>  (no output root: PNG on stdout)
	out, errb, err := r.runner.Run(ctx, nil, r.bin, "-f", n, "-l", n, "-r", strconv.Itoa(r.dpi), "-png", "-singlefile", page.Path())
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, cmdexec.Truncate(strings.TrimSpace(string(errb)), 512))
	}
	if !bytes.HasPrefix(out, pngSignature) {
		return nil, fmt.Errorf("pdftoppm: output is not a PNG (%d bytes)", len(out))
	}
	if cfg, err := png.DecodeConfig(bytes.NewReader(out)); err == nil {
		r.logger.Debug("ocr.render.ok", "page_index", page.Index, "dpi", r.dpi, "width", cfg.Width, "height", cfg.Height, "bytes", len(out))
	}
	return out, nil
}
