package text

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

var markdownExtensions = []string{".md", ".markdown", ".mdown", ".mkdn", ".mkd"}

// IsMarkdownFile reports whether the path looks like a Markdown document.
func IsMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// MarkdownToHTML renders a Markdown chapter so it can go through the same
// normalization as HTML chapters.
func MarkdownToHTML(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return buf.String(), nil
}
