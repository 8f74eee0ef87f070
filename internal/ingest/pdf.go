package ingest

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor turns PDF regulation documents into ordered text elements.
type PDFExtractor struct {
	logger *log.Logger
}

func NewPDFExtractor(logger *log.Logger) *PDFExtractor {
	if logger == nil {
		logger = log.New(log.Writer(), "[PDF] ", log.LstdFlags)
	}
	return &PDFExtractor{logger: logger}
}

// Extract reads every page of the PDF at path and returns one element per
// paragraph, preserving document order. Pages that fail text extraction are
// skipped with a warning rather than aborting the document.
func (x *PDFExtractor) Extract(path string) ([]TextElement, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	sourceFile := filepath.Base(path)
	var elements []TextElement

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			x.logger.Printf("warning: page %d of %s: %v", pageNum, sourceFile, err)
			continue
		}
		for _, para := range splitParagraphs(text) {
			elements = append(elements, TextElement{
				ID:         fmt.Sprintf("%s_p%d_e%d", sourceFile, pageNum, len(elements)),
				Type:       classifyElement(para),
				Text:       para,
				PageNumber: pageNum,
				SourceFile: sourceFile,
			})
		}
	}

	x.logger.Printf("extracted %d elements from %s (%d pages)", len(elements), sourceFile, reader.NumPage())
	return elements, nil
}

// splitParagraphs breaks extracted page text on blank lines, collapsing
// internal whitespace. A page with no blank lines yields a single element.
func splitParagraphs(text string) []string {
	var paras []string
	for _, block := range strings.Split(text, "\n\n") {
		clean := strings.Join(strings.Fields(block), " ")
		if clean != "" {
			paras = append(paras, clean)
		}
	}
	return paras
}

// classifyElement applies a cheap heading heuristic: short lines without a
// terminal period, or all-caps lines, are treated as titles.
func classifyElement(text string) string {
	if len(text) < 80 && !strings.HasSuffix(text, ".") {
		return "Title"
	}
	letters := 0
	upper := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters > 0 && upper == letters {
		return "Title"
	}
	return "NarrativeText"
}
