// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Build returns a PDF with one page per entry. An empty entry yields a page
// without any text, which is what a scanned page looks like to a text extractor.
func Build(pages ...string) []byte {
	if len(pages) == 0 {
		pages = []string{""}
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 pages, 3 font, then page/content pairs.
	nObjs := 3 + 2*len(pages)
	offsets := make([]int, nObjs+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i

		stream := ""
		if text != "" {
			stream = "BT\n/F1 12 Tf\n72 720 Td\n(" + escape(text) + ") Tj\nET"
		}

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", nObjs+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= nObjs; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", nObjs+1, xref)

	return []byte(b.String())
}

// WriteFile writes Build(pages...) into a temp dir and returns the path.
func WriteFile(t testing.TB, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages...), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
