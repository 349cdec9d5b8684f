package rag

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText pulls plain text out of a PDF, page by page. Pages that
// cannot be decoded (image-only, broken streams) are skipped.
func ExtractPDFText(r io.Reader) (string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	rdr, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	n := rdr.NumPage()
	for i := 1; i <= n; i++ {
		pg := rdr.Page(i)
		txt, err := pg.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(txt); s != "" {
			sb.WriteString(s)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no extractable text in pdf")
	}
	return sb.String(), nil
}
