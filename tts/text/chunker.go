package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is used when the caller passes a non-positive limit.
const DefaultMaxChunkSize = 3000

// sentenceEnd matches a run of terminators, any closing quotes or brackets
// that trail it, and the single space separating it from the next sentence.
var sentenceEnd = regexp.MustCompile(`[.!?]+["'”’»)\]]* `)

// Chunk is a bounded slice of the normalized text, the unit handed to the
// speech engine. Start is the rune offset of the chunk in the text.
type Chunk struct {
	Text  string
	Start int
}

// Len returns the length of the chunk in runes.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// End returns the rune offset just past the chunk.
func (c Chunk) End() int {
	return c.Start + c.Len()
}

// Length returns the length of s in runes, the unit every offset in this
// package is expressed in.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Sentences splits normalized text at sentence terminators followed by a
// space. The pieces joined with single spaces give back the input.
func Sentences(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	prev := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// loc[1]-1 is the separating space.
		out = append(out, text[prev:loc[1]-1])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}

// Split breaks normalized text into chunks of at most max runes.
//
// Sentences are accumulated greedily. A sentence is measured together with
// the space that precedes it in the text, so a sentence that does not open
// the text needs one rune of headroom to fit. A sentence that does not fit
// on its own is split by words the same way. A single word longer than max
// becomes a chunk of its own. Joining the chunk texts with single spaces
// reproduces the input.
func Split(text string, max int) []Chunk {
	text = Collapse(text)
	if text == "" {
		return nil
	}
	if max <= 0 {
		max = DefaultMaxChunkSize
	}

	var (
		pieces []string
		buf    string
		bufLen int
	)
	flush := func() {
		if buf != "" {
			pieces = append(pieces, buf)
		}
		buf, bufLen = "", 0
	}

	for i, s := range Sentences(text) {
		n := Length(s)
		lead := 0
		if i > 0 {
			lead = 1
		}
		measured := n + lead

		if buf != "" && bufLen+measured > max {
			flush()
		}

		if measured > max {
			// buf is empty here: either it was just flushed or the
			// sentence opens the text.
			words, wordsLen := "", lead
			for _, w := range strings.Split(s, " ") {
				wl := Length(w)
				cand := wordsLen + wl
				if words != "" {
					cand++
				}
				if words != "" && cand > max {
					pieces = append(pieces, words)
					words, wordsLen = w, wl
					continue
				}
				if words == "" {
					words = w
				} else {
					words += " " + w
				}
				wordsLen = cand
			}
			buf, bufLen = words, Length(words)
			continue
		}

		if buf == "" {
			buf, bufLen = s, n
		} else {
			buf += " " + s
			bufLen += measured
		}
	}
	flush()

	chunks := make([]Chunk, len(pieces))
	offset := 0
	for i, p := range pieces {
		chunks[i] = Chunk{Text: p, Start: offset}
		offset += Length(p) + 1
	}
	return chunks
}

// Join reassembles chunk texts with single-space separators.
func Join(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}
