package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// ErrNotPDF is returned when the content is not a valid PDF file
var ErrNotPDF = errors.New("content is not a valid PDF file")

// maxPDFPages caps extraction, matching how little of a long paper the
// answer prompt can use anyway.
const maxPDFPages = 10

// GenericPDFExtractor converts already-fetched PDF bytes into text.
// Like GenericHTMLExtractor it is pure CPU work and runs on the worker
// pool under a decode budget.
type GenericPDFExtractor struct{}

// NewGenericPDFExtractor creates the PDF text extractor.
func NewGenericPDFExtractor() *GenericPDFExtractor {
	return &GenericPDFExtractor{}
}

// Text extracts text from the first pages of a PDF document.
func (e *GenericPDFExtractor) Text(data []byte) (text string, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", ErrNotPDF
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	pages := pdfReader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var parts []string
	for i := 1; i <= pages; i++ {
		pageText, err := pdfReader.Page(i).GetPlainText(nil)
		if err != nil {
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			parts = append(parts, pageText)
		}
	}
	return strings.Join(parts, "\n"), nil
}
