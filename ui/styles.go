package ui

import "github.com/charmbracelet/lipgloss"

const ellipsis = "…"

var (
	green     = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}
	yellow    = lipgloss.AdaptiveColor{Light: "#A88100", Dark: "#ECFD65"}
	red       = lipgloss.AdaptiveColor{Light: "#D4343A", Dark: "#FF5F87"}
	dimGray   = lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}
	noteGray  = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBg  = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
	helpBg    = lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}
	messageBg = lipgloss.Color("#1C8760")
)

type styles struct {
	logo          lipgloss.Style
	note          lipgloss.Style
	percent       lipgloss.Style
	help          lipgloss.Style
	message       lipgloss.Style
	errorMessage  lipgloss.Style
	advisory      lipgloss.Style
	chunk         lipgloss.Style
	word          lipgloss.Style
	played        lipgloss.Style
	stateIcons    map[string]lipgloss.Style
	statusPadding lipgloss.Style
}

// newStyles builds the palette. Highlight colors are picked for the terminal
// background since they are not adaptive.
func newStyles(dark bool) styles {
	chunkBg, wordBg := lipgloss.Color("#E6E6E6"), lipgloss.Color("#ECFD65")
	if dark {
		chunkBg, wordBg = lipgloss.Color("#303030"), lipgloss.Color("#5A56E0")
	}

	return styles{
		logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#5A56E0")).
			Bold(true).
			Padding(0, 1),
		note:          lipgloss.NewStyle().Foreground(noteGray).Background(statusBg),
		percent:       lipgloss.NewStyle().Foreground(dimGray).Background(statusBg),
		help:          lipgloss.NewStyle().Foreground(noteGray).Background(helpBg),
		message:       lipgloss.NewStyle().Foreground(lipgloss.Color("#B6FFE4")).Background(messageBg),
		errorMessage:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(red),
		advisory:      lipgloss.NewStyle().Foreground(dimGray).Background(statusBg).Italic(true),
		chunk:         lipgloss.NewStyle().Background(chunkBg),
		word:          lipgloss.NewStyle().Background(wordBg).Bold(true),
		played:        lipgloss.NewStyle().Foreground(dimGray),
		statusPadding: lipgloss.NewStyle().Background(statusBg),
		stateIcons: map[string]lipgloss.Style{
			"playing":   lipgloss.NewStyle().Foreground(green).Background(statusBg),
			"paused":    lipgloss.NewStyle().Foreground(yellow).Background(statusBg),
			"stopping":  lipgloss.NewStyle().Foreground(red).Background(statusBg),
			"completed": lipgloss.NewStyle().Foreground(green).Background(statusBg),
			"idle":      lipgloss.NewStyle().Foreground(dimGray).Background(statusBg),
		},
	}
}
