// Package pdfutil pulls searchable text out of uploaded resumes.
package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// MaxTextLength caps the stored text of a single resume.
const MaxTextLength = 64 << 10

// ExtractText reads PDF bytes and returns plain text using ledongthuc/pdf.
func ExtractText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// ExtractFromReader drains the reader and returns normalized text.
func ExtractFromReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	text, err := ExtractText(data)
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

// Normalize collapses whitespace runs to single spaces, drops control
// characters and truncates to MaxTextLength bytes on a rune boundary.
func Normalize(text string) string {
	var b strings.Builder
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		if b.Len()+utf8.RuneLen(r) > MaxTextLength {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
