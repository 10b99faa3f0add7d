package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractText pulls plain text from a source document. PDF files go through
// the pdf reader; everything else is treated as UTF-8 text.
func extractText(name string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return extractPDF(name, data)
	}
	return string(data), nil
}

// extractPDF extracts the plain text of a PDF. The pdf package reads from a
// file path, so the bytes are staged in a temp file first.
func extractPDF(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "smartseva-*.pdf")
	if err != nil {
		return "", fmt.Errorf("ingestion: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("ingestion: write temp file: %w", err)
	}

	f, rdr, err := pdf.Open(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("ingestion: open pdf %q: %w", name, err)
	}
	defer f.Close()

	reader, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("ingestion: extract text from %q: %w", name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("ingestion: read text from %q: %w", name, err)
	}
	return buf.String(), nil
}
