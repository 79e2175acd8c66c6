package ocr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
)

type fakeRenderer struct {
	err   error
	calls atomic.Int32
}

func (r *fakeRenderer) Render(context.Context, document.Page) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return pngSignature, nil
}

func TestFallback_ExtractOCR(t *testing.T) {
	var created atomic.Int32
	f := NewFallback(&fakeRenderer{}, NewPool("fake", countingFactory(&created, "Scanned", "  ", "Text"), 1, nil), nil)

	text, err := f.ExtractOCR(context.Background(), document.Page{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "Scanned Text", text)
	require.NoError(t, f.Close())
}

func TestFallback_RenderFailureIsInference(t *testing.T) {
	var created atomic.Int32
	f := NewFallback(&fakeRenderer{err: errors.New("bad page")}, NewPool("fake", countingFactory(&created), 1, nil), nil)

	_, err := f.ExtractOCR(context.Background(), document.Page{Index: 4})
	var inf *common.OCRInferenceError
	require.True(t, errors.As(err, &inf))
	assert.Equal(t, 4, inf.PageIndex)
	assert.Zero(t, created.Load(), "no engine needed when rendering fails")
}

func TestFallback_Unavailable(t *testing.T) {
	pool := NewPool("tesseract", func(context.Context) (Engine, error) { return nil, errors.New("missing") }, 1, nil)
	f := NewFallback(&fakeRenderer{}, pool, nil)

	_, err := f.ExtractOCR(context.Background(), document.Page{Index: 0})
	var unavailable *common.OCRUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestFallback_RecognizeFailureDiscardsEngine(t *testing.T) {
	var engines []*fakeEngine
	pool := NewPool("fake", func(context.Context) (Engine, error) {
		e := &fakeEngine{err: errors.New("segfault-ish")}
		engines = append(engines, e)
		return e, nil
	}, 1, nil)
	f := NewFallback(&fakeRenderer{}, pool, nil)

	_, err := f.ExtractOCR(context.Background(), document.Page{Index: 2})
	var inf *common.OCRInferenceError
	require.True(t, errors.As(err, &inf))
	require.Len(t, engines, 1)
	assert.True(t, engines[0].closed.Load())
	assert.Equal(t, 0, pool.Live())
}

func TestPdftoppmRenderer(t *testing.T) {
	stub := &cmdexec.Stub{Respond: func(cmdexec.Call) ([]byte, []byte, error) {
		return append(append([]byte{}, pngSignature...), 0, 0, 0), nil, nil
	}}
	r := NewPdftoppmRenderer("", 0, stub, nil)
	assert.Equal(t, DefaultDPI, r.DPI())

	img, err := r.Render(context.Background(), document.Page{Index: 2})
	require.NoError(t, err)
	assert.True(t, len(img) > len(pngSignature))
	assert.Equal(t, "-f 3 -l 3 -r 200 -png -singlefile ", stub.Calls()[0].Joined())
}

func TestPdftoppmRenderer_NotPNG(t *testing.T) {
	stub := &cmdexec.Stub{Respond: func(cmdexec.Call) ([]byte, []byte, error) {
		return []byte("P6\n"), nil, nil
	}}
	_, err := NewPdftoppmRenderer("pdftoppm", 150, stub, nil).Render(context.Background(), document.Page{Index: 0})
	assert.ErrorContains(t, err, "not a PNG")
}

func TestNewFromConfig(t *testing.T) {
	cfg := common.DefaultConfig().Extraction
	f, err := NewFromConfig(cfg, tesseractStub("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", f.pool.Name())
	assert.Equal(t, cfg.OCRPoolSize, f.pool.Size())

	cfg.OCREngine = "easyocr"
	_, err = NewFromConfig(cfg, nil, nil)
	assert.Error(t, err)
}
