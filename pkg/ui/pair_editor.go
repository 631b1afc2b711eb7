package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tend/pkg/model"
)

// PairField identifies which input of the pair editor has focus.
type PairField int

const (
	FieldKey PairField = iota
	FieldValue
)

// PairEditorModel is the popup that collects one key/value pair
type PairEditorModel struct {
	key    textinput.Model
	value  textinput.Model
	field  PairField
	width  int
	height int
	theme  Theme
}

// NewPairEditorModel creates an editor with the key input focused
func NewPairEditorModel(theme Theme) PairEditorModel {
	key := textinput.New()
	key.Prompt = ""
	key.Placeholder = "key"
	key.CharLimit = 256

	value := textinput.New()
	value.Prompt = ""
	value.Placeholder = "value"
	value.CharLimit = 1024

	m := PairEditorModel{key: key, value: value, theme: theme}
	m.focus(FieldKey)
	return m
}

// SetSize updates the editor dimensions
func (m *PairEditorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Field returns the focused input.
func (m *PairEditorModel) Field() PairField {
	return m.field
}

// Toggle switches focus between key and value.
func (m *PairEditorModel) Toggle() {
	if m.field == FieldKey {
		m.focus(FieldValue)
	} else {
		m.focus(FieldKey)
	}
}

// Accept advances from key to value. On the value field it stores the pair
// in pairs, clears the inputs and reports true.
func (m *PairEditorModel) Accept(pairs model.Pairs) bool {
	if m.field == FieldKey {
		m.focus(FieldValue)
		return false
	}
	pairs.Set(m.key.Value(), m.value.Value())
	m.Reset()
	return true
}

// Reset clears both inputs and focuses the key.
func (m *PairEditorModel) Reset() {
	m.key.Reset()
	m.value.Reset()
	m.focus(FieldKey)
}

// Values returns the current key and value text.
func (m *PairEditorModel) Values() (string, string) {
	return m.key.Value(), m.value.Value()
}

func (m *PairEditorModel) focus(f PairField) {
	m.field = f
	if f == FieldKey {
		m.key.Focus()
		m.value.Blur()
	} else {
		m.value.Focus()
		m.key.Blur()
	}
}

// Update forwards input to the focused field.
func (m PairEditorModel) Update(msg tea.Msg) (PairEditorModel, tea.Cmd) {
	var cmd tea.Cmd
	if m.field == FieldKey {
		m.key, cmd = m.key.Update(msg)
	} else {
		m.value, cmd = m.value.Update(msg)
	}
	return m, cmd
}

// View renders the editor popup centered in the available area
func (m *PairEditorModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 20
	}

	t := m.theme
	r := t.Renderer

	boxWidth := width * 60 / 100
	if boxWidth < 30 {
		boxWidth = 30
	}
	inputWidth := boxWidth/2 - 4
	if inputWidth < 8 {
		inputWidth = 8
	}
	m.key.Width = inputWidth
	m.value.Width = inputWidth

	fieldBox := func(title string, input textinput.Model, active bool) string {
		style := r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(t.Border).
			Width(inputWidth + 2)
		if active {
			style = style.
				BorderForeground(t.Primary).
				Background(ThemeBg("#F1FA8C")).
				Foreground(lipgloss.Color("#000000"))
		}
		label := r.NewStyle().Foreground(t.Secondary).Render(title)
		return lipgloss.JoinVertical(lipgloss.Left, label, style.Render(input.View()))
	}

	titleStyle := r.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Enter a new key-value pair"),
		lipgloss.JoinHorizontal(lipgloss.Top,
			fieldBox("Key", m.key, m.field == FieldKey),
			"  ",
			fieldBox("Value", m.value, m.field == FieldValue),
		),
	)

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// RenderPairs lists pairs as "key : value" rows in key order.
func RenderPairs(pairs model.Pairs, theme Theme) string {
	if len(pairs) == 0 {
		return ""
	}
	style := theme.Renderer.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#F1FA8C"})
	lines := make([]string, 0, len(pairs))
	for _, k := range pairs.Keys() {
		lines = append(lines, style.Render(fmt.Sprintf("%-25s : %s", k, pairs[k])))
	}
	return strings.Join(lines, "\n")
}
