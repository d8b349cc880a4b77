package pdfutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Jane Doe Go engineer", Normalize("  Jane\tDoe\n\n Go   engineer \n"))
	assert.Equal(t, "ab", Normalize("a\x00b"))
	assert.Empty(t, Normalize(" \n\t "))
}

func TestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxTextLength)
	out := Normalize(long)
	assert.LessOrEqual(t, len(out), MaxTextLength)
	assert.True(t, strings.HasSuffix(out, "é"))
}

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := ExtractFromReader(strings.NewReader("plain text, not a pdf"))
	assert.Error(t, err)
}
