package pipeline

import (
	"context"

	"github.com/joseph-ayodele/quizgen/internal/document"
)

// Document is the part of *document.Document the pipeline relies on.
type Document interface {
	PageCount() int
	Page(index int) document.Page
	Close() error
}

// Opener opens a document for one run.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, path string) (Document, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (Document, error) { return f(ctx, path) }

// PDFOpener opens files with document.Open.
var PDFOpener Opener = OpenerFunc(func(ctx context.Context, path string) (Document, error) {
	doc, err := document.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
})

// OCREngine recognizes the text of a page that has none embedded.
type OCREngine interface {
	ExtractOCR(ctx context.Context, page document.Page) (string, error)
}

// Extractor is what callers of the pipeline depend on.
type Extractor interface {
	Run(ctx context.Context, path string, opts ...RunOption) (*Result, error)
}
