package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/tend/pkg/scope"
)

// ScopeSwitcher is implemented by task sources whose scope can change at
// runtime.
type ScopeSwitcher interface {
	SetScope(name string) error
}

// SwitchScopeMsg is sent when the user selects a scope.
type SwitchScopeMsg struct {
	Name string
}

// ScopePickerModel is a compact header for switching scopes. Scopes 1-9 can
// be picked directly by number; the filter line accepts a fuzzy query.
type ScopePickerModel struct {
	scopes      []scope.Scope
	active      string
	filtered    []int // indices into scopes
	cursor      int
	width       int
	filterInput textinput.Model
	open        bool
	theme       Theme
}

// NewScopePicker creates a picker over scopes with active selected.
func NewScopePicker(scopes []scope.Scope, active string, theme Theme) ScopePickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30

	m := ScopePickerModel{
		scopes:      scopes,
		active:      active,
		filterInput: ti,
		theme:       theme,
	}
	m.applyFilter()
	return m
}

// SetSize updates the picker width.
func (m *ScopePickerModel) SetSize(w int) {
	m.width = w
}

// SetActive marks name as the current scope.
func (m *ScopePickerModel) SetActive(name string) {
	m.active = name
}

// Active returns the current scope name.
func (m *ScopePickerModel) Active() string {
	return m.active
}

// Len returns the number of scopes.
func (m *ScopePickerModel) Len() int {
	return len(m.scopes)
}

// IsOpen reports whether the picker is taking input.
func (m *ScopePickerModel) IsOpen() bool {
	return m.open
}

// Open starts filter mode with the cursor on the active scope.
func (m *ScopePickerModel) Open() tea.Cmd {
	m.open = true
	m.filterInput.SetValue("")
	m.applyFilter()
	m.cursor = 0
	for i, idx := range m.filtered {
		if strings.EqualFold(m.scopes[idx].Name, m.active) {
			m.cursor = i
			break
		}
	}
	return m.filterInput.Focus()
}

// Close leaves filter mode.
func (m *ScopePickerModel) Close() {
	m.open = false
	m.filterInput.Blur()
	m.filterInput.SetValue("")
	m.applyFilter()
}

// QuickSwitch returns a command selecting the nth scope (1-based), or nil.
func (m *ScopePickerModel) QuickSwitch(n int) tea.Cmd {
	if n < 1 || n > len(m.scopes) || n > 9 {
		return nil
	}
	name := m.scopes[n-1].Name
	return func() tea.Msg {
		return SwitchScopeMsg{Name: name}
	}
}

// Update handles keys while the picker is open.
func (m ScopePickerModel) Update(msg tea.Msg) (ScopePickerModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "esc":
		m.Close()
		return m, nil
	case "enter":
		selected := m.Selected()
		m.Close()
		if selected == nil {
			return m, nil
		}
		name := selected.Name
		return m, func() tea.Msg {
			return SwitchScopeMsg{Name: name}
		}
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(keyMsg)
	m.applyFilter()
	return m, cmd
}

type scopeNames []scope.Scope

func (s scopeNames) String(i int) string { return s[i].Name + " " + s[i].Description }
func (s scopeNames) Len() int            { return len(s) }

// applyFilter updates the filtered indices from the filter input. Matches
// are ranked by fuzzy score.
func (m *ScopePickerModel) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		m.filtered = make([]int, len(m.scopes))
		for i := range m.scopes {
			m.filtered[i] = i
		}
	} else {
		matches := fuzzy.FindFrom(query, scopeNames(m.scopes))
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// Selected returns the highlighted scope, or nil if nothing matches.
func (m *ScopePickerModel) Selected() *scope.Scope {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	s := m.scopes[m.filtered[m.cursor]]
	return &s
}

// FilteredCount returns the number of scopes matching the filter.
func (m *ScopePickerModel) FilteredCount() int {
	return len(m.filtered)
}

// Height returns the number of lines View uses. A closed picker uses none.
func (m *ScopePickerModel) Height() int {
	if !m.open {
		return 0
	}
	return 2 + m.chipLineCount(m.width)
}

// View renders the filter line, the scope chips and a title rule.
func (m *ScopePickerModel) View() string {
	if !m.open {
		return ""
	}
	w := m.width
	if w == 0 {
		w = 80
	}
	t := m.theme

	sections := []string{
		t.Renderer.NewStyle().Foreground(t.Primary).Render("  / " + m.filterInput.View()),
	}
	if len(m.filtered) == 0 {
		sections = append(sections, t.Renderer.NewStyle().
			Foreground(t.Secondary).
			Italic(true).
			Render("  No matching scopes"))
	} else {
		sections = append(sections, m.renderChips(w)...)
	}
	sections = append(sections, m.renderTitleBar(w))
	return strings.Join(sections, "\n")
}

func (m *ScopePickerModel) renderTitleBar(w int) string {
	t := m.theme

	label := fmt.Sprintf("scopes(%s)", m.active)
	if v := m.filterInput.Value(); v != "" {
		label = fmt.Sprintf("scopes(%s)", v)
	}
	count := fmt.Sprintf("[%d]", len(m.filtered))

	title := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(label) +
		t.Renderer.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}).Render(count)

	titleLen := lipgloss.Width(label + count)
	leftPad := (w - titleLen - 4) / 2
	rightPad := w - titleLen - 4 - leftPad
	if leftPad < 1 {
		leftPad = 1
	}
	if rightPad < 1 {
		rightPad = 1
	}

	sep := t.Renderer.NewStyle().Foreground(t.Border)
	return sep.Render(strings.Repeat("─", leftPad)) + " " + title + " " + sep.Render(strings.Repeat("─", rightPad))
}

// chipText is "N name" for the first nine scopes and "  name" after.
func (m *ScopePickerModel) chipText(idx int) string {
	num := " "
	if idx < 9 {
		num = fmt.Sprintf("%d", idx+1)
	}
	return num + " " + m.scopes[idx].Name
}

// renderChips flows scope chips horizontally, wrapping at w.
func (m *ScopePickerModel) renderChips(w int) []string {
	t := m.theme
	var lines []string
	var line strings.Builder
	lineLen := 0
	const indent = 2

	for i, idx := range m.filtered {
		text := m.chipText(idx)
		textLen := lipgloss.Width(text)

		if lineLen > indent && lineLen+textLen+2 > w {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
		if lineLen == 0 {
			line.WriteString("  ")
			lineLen = indent
		} else {
			line.WriteString("  ")
			lineLen += 2
		}

		style := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
		switch {
		case i == m.cursor:
			style = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Underline(true)
		case strings.EqualFold(m.scopes[idx].Name, m.active):
			style = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
		}
		line.WriteString(style.Render(text))
		lineLen += textLen
	}
	if lineLen > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// chipLineCount predicts how many lines renderChips uses at width w.
func (m *ScopePickerModel) chipLineCount(w int) int {
	if w == 0 {
		w = 80
	}
	if len(m.filtered) == 0 {
		return 1
	}
	lines := 1
	lineLen := 2
	for _, idx := range m.filtered {
		textLen := lipgloss.Width(m.chipText(idx))
		if lineLen > 2 && lineLen+textLen+2 > w {
			lines++
			lineLen = 2
		}
		if lineLen == 2 {
			lineLen += textLen
		} else {
			lineLen += textLen + 2
		}
	}
	return lines
}
