package pipeline

import (
	"sort"
	"strings"
)

// Method records how a page's text was obtained.
type Method string

const (
	MethodDigital Method = "digital"
	MethodOCR     Method = "ocr"
	MethodEmpty   Method = "empty"
)

// Label is the human-readable name used in CLI reports.
func (m Method) Label() string {
	switch m {
	case MethodDigital:
		return "Digital Extraction"
	case MethodOCR:
		return "OCR"
	default:
		return "Empty"
	}
}

// PageBreak separates page texts in Result.FullText.
const PageBreak = "\n\n"

// PageResult is the outcome for one page.
// Method is empty iff Text is empty; ocr only when the page had no embedded text.
type PageResult struct {
	PageIndex int    `json:"page_index"`
	Method    Method `json:"method"`
	Text      string `json:"text"`
	// Note carries the diagnostic of a recovered page-level failure.
	Note string `json:"note,omitempty"`
}

// Result is the extraction output for one document.
type Result struct {
	Filename   string       `json:"filename"`
	Pages      []PageResult `json:"pages"`
	FullText   string       `json:"full_text"`
	OCRPages   int          `json:"ocr_pages,omitempty"`
	EmptyPages int          `json:"empty_pages,omitempty"`
}

// Degraded reports whether any page carries a recovered failure, so the result
// may differ on a later run.
func (r *Result) Degraded() bool {
	for _, p := range r.Pages {
		if p.Note != "" {
			return true
		}
	}
	return false
}

// Assemble orders pages by index and joins their non-empty texts with PageBreak.
func Assemble(filename string, pages []PageResult) *Result {
	ordered := make([]PageResult, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].PageIndex < ordered[j].PageIndex })

	res := &Result{Filename: filename, Pages: ordered}
	texts := make([]string, 0, len(ordered))
	for _, p := range ordered {
		switch p.Method {
		case MethodOCR:
			res.OCRPages++
		case MethodEmpty:
			res.EmptyPages++
		}
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	res.FullText = strings.Join(texts, PageBreak)
	return res
}
