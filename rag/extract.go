package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/mudler/xlog"
	"jaytaylor.com/html2text"
)

// ExtractPages turns a document file into ordered text blocks with positional
// metadata. PDF pages keep their page numbers; other formats yield a single
// unpaginated block.
func ExtractPages(path string) ([]Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".html", ".htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text, err := html2text.FromString(string(raw), html2text.Options{PrettyTables: true})
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML: %w", err)
		}
		return []Page{{Number: 0, Text: text}}, nil
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []Page{{Number: 0, Text: string(raw)}}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) ([]Page, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// One broken page must not sink the whole document.
			xlog.Warn("Skipping unreadable PDF page", "file", path, "page", i, "error", err)
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
