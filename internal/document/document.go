// Package document opens PDF files and extracts their embedded text page by page.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

// Document is an opened PDF. It is owned by a single extraction run and must be closed.
type Document struct {
	path      string
	file      *os.File
	size      int64
	pageCount int

	nativeOnce sync.Once
	native     *pdf.Reader
	nativeErr  error

	closeOnce sync.Once
	closeErr  error
}

// Page is a read-only view of one page. Index is 0-based.
type Page struct {
	Index int
	doc   *Document
}

// Number is the 1-based page number used by poppler and the PDF readers.
func (p Page) Number() int { return p.Index + 1 }

// Path is the file backing the page's document.
func (p Page) Path() string {
	if p.doc == nil {
		return ""
	}
	return p.doc.path
}

// CheckExtension rejects names that do not carry the .pdf extension.
func CheckExtension(name string) error {
	ext := filepath.Ext(name)
	if !constants.IsAllowedExt(ext) {
		reason := "missing extension"
		if ext != "" {
			reason = fmt.Sprintf("extension %s is not %s", ext, constants.PDFExtension)
		}
		return &common.UnsupportedFormatError{Filename: filepath.Base(name), Reason: reason}
	}
	return nil
}

// SniffPDF reports whether head starts with the PDF signature.
func SniffPDF(head []byte) bool {
	return bytes.HasPrefix(head, []byte(constants.PDFMagic))
}

// Open validates the file at path and returns a handle to it.
// Errors are *common.DocumentOpenError or *common.UnsupportedFormatError.
func Open(ctx context.Context, path string) (*Document, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: err}
	}
	doc, err := open(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return doc, nil
}

func open(f *os.File, path string) (*Document, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: err}
	}
	if st.IsDir() {
		return nil, &common.DocumentOpenError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	head := make([]byte, len(constants.PDFMagic))
	if _, err := io.ReadFull(f, head); err != nil || !SniffPDF(head) {
		return nil, &common.UnsupportedFormatError{Filename: filepath.Base(path), Reason: "missing %PDF- signature"}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: err}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: fmt.Errorf("validate: %w", err)}
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, &common.DocumentOpenError{Path: path, Err: fmt.Errorf("page count: %w", err)}
	}

	return &Document{
		path:      path,
		file:      f,
		size:      st.Size(),
		pageCount: pdfCtx.PageCount,
	}, nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// Page returns the page at a 0-based index.
func (d *Document) Page(index int) Page {
	return Page{Index: index, doc: d}
}

// nativeReader lazily builds the pure-Go reader over the already open file.
func (d *Document) nativeReader() (*pdf.Reader, error) {
	d.nativeOnce.Do(func() {
		d.native, d.nativeErr = pdf.NewReader(d.file, d.size)
	})
	return d.native, d.nativeErr
}

// Close releases the file. Calling it more than once is safe and returns the first result.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.file.Close()
	})
	return d.closeErr
}
