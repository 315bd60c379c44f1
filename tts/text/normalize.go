package text

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// skipped holds elements whose content is never spoken.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// blocks holds elements that separate words even when the markup has no
// whitespace between them ("<p>One.</p><p>Two.</p>").
var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Br: true, atom.Dd: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.Ul: true,
}

// Normalize extracts the readable text of an HTML fragment. Script and
// style content is dropped, runs of whitespace collapse to a single space
// and the result is trimmed. The output is NFC-normalized so rune offsets
// stay stable between runs.
func Normalize(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	var raw strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	depth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return Collapse(norm.NFC.String(raw.String()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] && tt == html.StartTagToken {
				depth++
			}
			if blocks[a] {
				raw.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] && depth > 0 {
				depth--
			}
			if blocks[a] {
				raw.WriteByte(' ')
			}
		case html.TextToken:
			if depth == 0 {
				raw.Write(z.Text())
			}
		}
	}
}

// Collapse replaces every run of Unicode whitespace with one ASCII space
// and trims both ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsNormalized reports whether s is already in collapsed form.
func IsNormalized(s string) bool {
	return Collapse(s) == s
}
