// Package ui provides the terminal reader for readaloud.
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/text"
)

const (
	statusBarHeight      = 1
	statusMessageTimeout = 3 * time.Second
	rateStep             = 0.1
)

// Player is the part of the controller the reader drives.
type Player interface {
	Start(html string)
	Toggle() bool
	Stop()
	ApplySettings(u tts.SettingsUpdate)
	State() tts.StateSnapshot
	Session() (tts.PlaybackSession, bool)
	Voices() []tts.Voice
	NotifyVisibility(visible bool)
	Destroy()
}

// Config contains TUI-specific configuration.
type Config struct {
	Title       string
	MaxWidth    int
	EnableMouse bool
}

// NewProgram returns a new Tea program reading html aloud.
func NewProgram(cfg Config, player Player, bridge *Bridge, html string) *tea.Program {
	log.Debug("Starting reader", "title", cfg.Title, "mouse", cfg.EnableMouse)

	m := newModel(cfg, player, bridge, html, termenv.HasDarkBackground())
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(m, opts...)
}

type statusMessageTimeoutMsg struct{ id int }

type model struct {
	cfg    Config
	player Player
	bridge *Bridge
	html   string

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   styles

	doc      document
	snapshot tts.StateSnapshot
	follow   bool
	width    int
	height   int

	statusMessage string
	statusStyle   styleRef
	statusID      int
}

// styleRef selects the status message style.
type styleRef int

const (
	styleMessage styleRef = iota
	styleError
	styleAdvisory
)

func newModel(cfg Config, player Player, bridge *Bridge, html string, dark bool) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	vp := viewport.New(0, 0)
	// Space and f belong to the reader.
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))

	return model{
		cfg:      cfg,
		player:   player,
		bridge:   bridge,
		html:     html,
		keys:     newKeyMap(),
		help:     help.New(),
		viewport: vp,
		spinner:  sp,
		styles:   newStyles(dark),
		doc:      document{text: text.Normalize(html), chunk: -1},
		snapshot: player.State(),
		follow:   true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.bridge.listen(), m.start(), m.spinner.Tick)
}

func (m model) start() tea.Cmd {
	return func() tea.Msg {
		m.player.Start(m.html)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.setSize()
		m.refresh()

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, cmd
		}
		cmds = append(cmds, cmd)

	case tea.FocusMsg:
		m.player.NotifyVisibility(true)
	case tea.BlurMsg:
		m.player.NotifyVisibility(false)
	case tea.ResumeMsg:
		m.player.NotifyVisibility(true)

	case stateMsg:
		m.snapshot = tts.StateSnapshot(msg)
		m.syncSession()
		m.refresh()
		cmds = append(cmds, m.bridge.listen())

	case progressMsg:
		m.doc.char = msg.current
		if s, ok := m.player.Session(); ok {
			m.doc.chunk = s.ChunkIndex
		}
		m.snapshot.CharIndex = msg.current
		m.snapshot.TotalChars = msg.total
		m.refresh()
		cmds = append(cmds, m.bridge.listen())

	case errorMsg:
		cmds = append(cmds, m.showError(msg.err), m.bridge.listen())

	case StatusMsg:
		cmds = append(cmds, m.showStatusMessage(string(msg), styleMessage))

	case statusMessageTimeoutMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.player.Destroy()
		m.bridge.Close()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Toggle):
		m.player.Toggle()

	case key.Matches(msg, m.keys.Stop):
		m.player.Stop()

	case key.Matches(msg, m.keys.Restart):
		m.follow = true
		m.player.Start(m.html)

	case key.Matches(msg, m.keys.Faster):
		m.player.ApplySettings(tts.RateUpdate(roundRate(m.snapshot.Rate + rateStep)))

	case key.Matches(msg, m.keys.Slower):
		m.player.ApplySettings(tts.RateUpdate(roundRate(m.snapshot.Rate - rateStep)))

	case key.Matches(msg, m.keys.NextVoice), key.Matches(msg, m.keys.PrevVoice):
		voices := m.player.Voices()
		if len(voices) == 0 {
			return m.showStatusMessage("No voices available", styleError), false
		}
		step := 1
		if key.Matches(msg, m.keys.PrevVoice) {
			step = -1
		}
		next := (m.snapshot.VoiceIndex + step + len(voices)) % len(voices)
		m.player.ApplySettings(tts.VoiceUpdate(next))
		return m.showStatusMessage("Voice: "+voices[next].String(), styleMessage), false

	case key.Matches(msg, m.keys.Copy):
		chunk, ok := m.doc.current()
		if !ok {
			return m.showStatusMessage("Nothing playing", styleAdvisory), false
		}
		if err := clipboard.WriteAll(chunk.Text); err != nil {
			log.Debug("Clipboard write failed", "error", err)
			return m.showStatusMessage("Could not copy: "+err.Error(), styleError), false
		}
		return m.showStatusMessage("Copied current chunk", styleMessage), false

	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		m.refresh()

	case key.Matches(msg, m.viewport.KeyMap.Up, m.viewport.KeyMap.Down,
		m.viewport.KeyMap.PageUp, m.viewport.KeyMap.PageDown,
		m.viewport.KeyMap.HalfPageUp, m.viewport.KeyMap.HalfPageDown):
		m.follow = false

	case key.Matches(msg, m.keys.Suspend):
		m.player.NotifyVisibility(false)
		return tea.Suspend, false

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize()
		m.refresh()
	}
	return nil, false
}

// syncSession copies chunk layout from the live session. After a stop the
// last layout stays on screen with no chunk highlighted.
func (m *model) syncSession() {
	s, ok := m.player.Session()
	if !ok {
		m.doc.chunk = -1
		return
	}
	m.doc.text = s.Text
	m.doc.chunks = s.Chunks
	m.doc.chunk = s.ChunkIndex
	m.doc.char = s.CharIndex
}

func (m *model) setSize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - statusBarHeight
	if m.help.ShowAll {
		m.viewport.Height -= strings.Count(m.helpView(), "\n") + 1
	}
	if m.viewport.Height < 0 {
		m.viewport.Height = 0
	}
}

func (m *model) textWidth() int {
	w := m.width
	if m.cfg.MaxWidth > 0 && w > m.cfg.MaxWidth {
		w = m.cfg.MaxWidth
	}
	return w
}

// refresh re-renders the document and keeps the spoken line in view.
func (m *model) refresh() {
	if m.width == 0 {
		return
	}
	width := m.textWidth()
	m.viewport.SetContent(m.doc.render(m.styles, width))

	if !m.follow || m.doc.chunk < 0 {
		return
	}
	line := m.doc.line(width)
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(0, line-m.viewport.Height/3))
	}
}

func (m *model) showStatusMessage(msg string, style styleRef) tea.Cmd {
	m.statusID++
	m.statusMessage = msg
	m.statusStyle = style
	id := m.statusID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}

func (m *model) showError(err *tts.TTSError) tea.Cmd {
	style := styleError
	if err.Kind == tts.KindAdvisory || err.Kind == tts.KindIgnorable {
		style = styleAdvisory
	}
	return m.showStatusMessage(err.Error(), style)
}

func roundRate(r float64) float64 {
	return math.Round(r*10) / 10
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b)
	if m.help.ShowAll {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}
