package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// KeyMap holds the tree view bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Edit     key.Binding
	Copy     key.Binding
	Reload   key.Binding
	Scope    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "new pair"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy name"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Scope: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s/1-9", "scope"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.Scope, k.Edit, k.Copy, k.Reload, k.Help, k.Quit},
	}
}

// Command decodes a key press into a tree command. Keys that are not
// navigation or quit decode to CmdNone.
func (k KeyMap) Command(msg tea.KeyMsg) Command {
	switch {
	case key.Matches(msg, k.Quit):
		return CmdQuit
	case key.Matches(msg, k.Up):
		return CmdUp
	case key.Matches(msg, k.Down):
		return CmdDown
	case key.Matches(msg, k.Top):
		return CmdTop
	case key.Matches(msg, k.Bottom):
		return CmdBottom
	case key.Matches(msg, k.PageUp):
		return CmdPageUp
	case key.Matches(msg, k.PageDown):
		return CmdPageDown
	}
	return CmdNone
}

const pairEditorHelp = `e opens the pair editor. Type the key, then Enter
to move to the value. Enter on the value stores
the pair; Tab switches fields and Esc cancels.
Pairs are printed as JSON when tend exits.`

// RenderContextHelp renders the help modal listing every binding.
func RenderContextHelp(keys KeyMap, theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	h := help.New()
	h.ShowAll = true
	h.Width = modalWidth - 6

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(h.View(keys))
	b.WriteString("\n\n")
	b.WriteString(r.NewStyle().Foreground(theme.Secondary).Render(pairEditorHelp))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("? or Esc to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
