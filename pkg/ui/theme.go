package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tend/pkg/config"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Open      lipgloss.AdaptiveColor
	Done      lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	MutedText lipgloss.Style
	ErrorText lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Open:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Done:      lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.ErrorText = r.NewStyle().Foreground(t.Error).Bold(true)

	return t
}

// NewStyleConfig builds the tree renderer options from the ui section of the
// config. Colors left empty fall back to the theme.
func NewStyleConfig(theme Theme, c config.UIConfig) StyleConfig {
	r := theme.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	highlight := r.NewStyle().Bold(true)
	if c.HighlightFg != "" {
		highlight = highlight.Foreground(lipgloss.Color(c.HighlightFg))
	}
	if c.HighlightBg != "" {
		highlight = highlight.Background(lipgloss.Color(c.HighlightBg))
	} else {
		highlight = highlight.Background(theme.Highlight)
	}

	base := theme.Base
	if c.BaseFg != "" {
		base = r.NewStyle().Foreground(lipgloss.Color(c.BaseFg))
	}

	return StyleConfig{
		Indicator:  c.Indicator,
		Highlight:  highlight,
		Base:       base,
		IndentUnit: c.Indent,
		DoneMark:   c.DoneMark,
		TodoMark:   c.TodoMark,
	}
}
