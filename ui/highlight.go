package ui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/dgnsrekt/readaloud/tts/text"
)

// document is the text on screen plus where playback is inside it.
type document struct {
	text   string
	chunks []text.Chunk
	chunk  int // index into chunks, -1 when nothing is playing
	char   int // rune offset of the spoken position
}

// current returns the chunk being spoken.
func (d document) current() (text.Chunk, bool) {
	if d.chunk < 0 || d.chunk >= len(d.chunks) {
		return text.Chunk{}, false
	}
	return d.chunks[d.chunk], true
}

// render wraps the document at width and highlights the current chunk and
// the word at the spoken position. Words are styled one by one so highlight
// backgrounds never bleed across wrapped lines.
func (d document) render(st styles, width int) string {
	chunk, ok := d.current()
	if !ok {
		return wrap(d.text, width)
	}

	runes := []rune(d.text)
	start, end := clampRange(chunk.Start, chunk.End(), len(runes))

	var b strings.Builder
	b.WriteString(st.played.Render(string(runes[:start])))

	pos := start
	for i, w := range strings.Split(string(runes[start:end]), " ") {
		if i > 0 {
			b.WriteString(st.chunk.Render(" "))
			pos++
		}
		n := len([]rune(w))
		style := st.chunk
		if d.char >= pos && d.char < pos+n {
			style = st.word
		}
		b.WriteString(style.Render(w))
		pos += n
	}

	b.WriteString(string(runes[end:]))
	return wrap(b.String(), width)
}

// line returns the wrapped line holding the spoken position.
func (d document) line(width int) int {
	runes := []rune(d.text)
	at := d.char
	if chunk, ok := d.current(); ok && at < chunk.Start {
		at = chunk.Start
	}
	if at > len(runes) {
		at = len(runes)
	}
	return strings.Count(wrap(string(runes[:at]), width), "\n")
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}
