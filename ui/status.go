package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/readaloud/tts"
)

// maxTitleWidth caps the document title in the status bar, in cells.
const maxTitleWidth = 32

var stateGlyphs = map[tts.StateType]string{
	tts.StateIdle:      "■",
	tts.StatePlaying:   "▶",
	tts.StatePaused:    "⏸",
	tts.StateStopping:  "■",
	tts.StateCompleted: "✓",
}

// statusNote describes the playback position, e.g.
// "playing 42% · 1,234/2,940 chars · chunk 2/5 · English (America) · 1.2x".
func statusNote(s tts.StateSnapshot) string {
	parts := []string{fmt.Sprintf("%s %d%%", s.State, s.Percent())}
	if s.TotalChars > 0 {
		parts = append(parts, fmt.Sprintf("%s/%s chars",
			humanize.Comma(int64(s.CharIndex)), humanize.Comma(int64(s.TotalChars))))
	}
	if s.TotalChunks > 0 {
		parts = append(parts, fmt.Sprintf("chunk %d/%d", s.ChunkIndex+1, s.TotalChunks))
	}
	if s.Voice != "" {
		parts = append(parts, s.Voice)
	}
	parts = append(parts, fmt.Sprintf("%.1fx", s.Rate))
	return strings.Join(parts, " · ")
}

func (m model) statusBarView(b *strings.Builder) {
	st := m.styles

	logo := st.logo.Render("readaloud")

	icon := stateGlyphs[m.snapshot.State]
	if m.snapshot.State == tts.StatePlaying {
		icon = m.spinner.View()
	}
	iconStyle, ok := st.stateIcons[m.snapshot.State.String()]
	if !ok {
		iconStyle = st.note
	}
	stateIcon := iconStyle.Render(" " + icon + " ")

	percent := st.percent.Render(fmt.Sprintf(" %3d%% ", m.snapshot.Percent()))
	helpNote := st.help.Render(" ? Help ")

	noteStyle := st.note
	note := statusNote(m.snapshot)
	if m.cfg.Title != "" {
		note = runewidth.Truncate(m.cfg.Title, maxTitleWidth, ellipsis) + " · " + note
	}
	if m.statusMessage != "" {
		note = m.statusMessage
		switch m.statusStyle {
		case styleError:
			noteStyle = st.errorMessage
		case styleAdvisory:
			noteStyle = st.advisory
		default:
			noteStyle = st.message
		}
	}

	fixed := ansi.PrintableRuneWidth(logo) +
		ansi.PrintableRuneWidth(stateIcon) +
		ansi.PrintableRuneWidth(percent) +
		ansi.PrintableRuneWidth(helpNote)
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, m.width-fixed)), ellipsis) //nolint:gosec
	note = noteStyle.Render(note)

	padding := max(0, m.width-fixed-ansi.PrintableRuneWidth(note))
	emptySpace := noteStyle.Render(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s%s",
		logo,
		stateIcon,
		note,
		emptySpace,
		percent,
		helpNote,
	)
}

// helpView renders the full key help, filled to the terminal width so the
// background covers the whole area.
func (m model) helpView() string {
	s := m.help.View(m.keys)
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := range lines {
			n := max(m.width-ansi.PrintableRuneWidth(lines[i]), 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}
	return m.styles.help.Render(s)
}
