package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vanderheijden86/tend/pkg/model"
	"github.com/vanderheijden86/tend/pkg/scope"
)

// Screen is the input mode of the app.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenEditing
)

// header and two footer rows
const chromeHeight = 3

// ModelConfig wires the app to its data and environment.
type ModelConfig struct {
	Theme        Theme
	Style        StyleConfig
	Keys         *KeyMap
	Source       TaskSource
	Worker       *BackgroundWorker // optional, drives file-change reloads
	PollInterval time.Duration     // zero disables the poll tick
	LoadTimeout  time.Duration
	StateDir     string
	Scopes       []scope.Scope
	ScopeName    string
	Logger       *log.Logger
	Clipboard    func(string) error
}

// Model is the bubbletea model of the task viewer.
type Model struct {
	tree   *TreeModel
	editor PairEditorModel
	picker ScopePickerModel
	pairs  model.Pairs
	keys   KeyMap
	help   help.Model
	theme  Theme

	source       TaskSource
	worker       *BackgroundWorker
	pollInterval time.Duration
	loadTimeout  time.Duration
	copy         func(string) error
	logger       *log.Logger

	screen   Screen
	showHelp bool
	ready    bool
	width    int
	height   int

	loadErr  error
	lastLoad time.Duration
	status   string
}

// NewModel creates the app model. Tasks arrive through Init.
func NewModel(cfg ModelConfig) Model {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.WriteAll
	}
	keys := DefaultKeyMap()
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}

	tree := NewTreeModel(cfg.Theme, cfg.Style)
	tree.SetStateDir(cfg.StateDir)
	tree.SetLogger(cfg.Logger)

	h := help.New()
	h.ShortSeparator = " • "

	return Model{
		tree:         &tree,
		editor:       NewPairEditorModel(cfg.Theme),
		picker:       NewScopePicker(cfg.Scopes, cfg.ScopeName, cfg.Theme),
		pairs:        model.Pairs{},
		keys:         keys,
		help:         h,
		theme:        cfg.Theme,
		source:       cfg.Source,
		worker:       cfg.Worker,
		pollInterval: cfg.PollInterval,
		loadTimeout:  cfg.LoadTimeout,
		copy:         cfg.Clipboard,
		logger:       cfg.Logger,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(LoadTasksCmd(m.source, m.loadTimeout), TickCmd(m.pollInterval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case TasksLoadedMsg:
		m.lastLoad = msg.Duration
		if msg.Err != nil {
			m.loadErr = msg.Err
			m.logger.Warn("loading tasks failed", "err", msg.Err)
			return m, nil
		}
		m.loadErr = nil
		m.tree.SetTasks(msg.Tasks)
		return m, nil

	case TickMsg:
		return m, tea.Batch(LoadTasksCmd(m.source, m.loadTimeout), TickCmd(m.pollInterval))

	case SwitchScopeMsg:
		return m.switchScope(msg.Name)

	case tea.KeyMsg:
		if m.screen == ScreenEditing {
			return m.updateEditor(msg)
		}
		if m.picker.IsOpen() {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			m.layout()
			return m, cmd
		}
		return m.updateMain(msg)
	}

	if m.screen == ScreenEditing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), msg.Type == tea.KeyEsc:
			m.showHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
		default:
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Scope):
		if m.picker.Len() == 0 {
			return m, nil
		}
		cmd := m.picker.Open()
		m.layout()
		return m, cmd

	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9':
		return m, m.picker.QuickSwitch(int(msg.Runes[0] - '0'))

	case key.Matches(msg, m.keys.Edit):
		m.screen = ScreenEditing
		m.editor.Reset()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Copy):
		task := m.tree.SelectedTask()
		if task == nil {
			return m, nil
		}
		if err := m.copy(task.Name); err != nil {
			m.status = fmt.Sprintf("copy failed: %v", err)
			m.logger.Warn("clipboard write failed", "err", err)
		} else {
			m.status = fmt.Sprintf("copied %q", task.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	}

	cmd := m.keys.Command(msg)
	if cmd == CmdNone {
		return m, nil
	}
	if m.tree.Apply(cmd) {
		return m, tea.Quit
	}
	return m, nil
}

// reload fetches a fresh snapshot, through the worker when there is one.
func (m *Model) reload() tea.Cmd {
	if m.worker != nil {
		m.worker.ResetHash()
		m.worker.TriggerRefresh()
		return nil
	}
	return LoadTasksCmd(m.source, m.loadTimeout)
}

// switchScope points the source at a new scope and reloads.
func (m Model) switchScope(name string) (tea.Model, tea.Cmd) {
	switcher, ok := m.source.(ScopeSwitcher)
	if !ok {
		return m, nil
	}
	if err := switcher.SetScope(name); err != nil {
		m.status = err.Error()
		m.logger.Warn("switching scope failed", "scope", name, "err", err)
		return m, nil
	}
	m.picker.SetActive(name)
	m.status = "scope: " + name
	m.logger.Debug("switched scope", "scope", name)
	return m, m.reload()
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = ScreenMain
		m.editor.Reset()
		return m, nil
	case tea.KeyTab:
		m.editor.Toggle()
		return m, nil
	case tea.KeyEnter:
		if m.editor.Accept(m.pairs) {
			m.screen = ScreenMain
			m.layout()
		}
		return m, nil
	case tea.KeyCtrlC:
		m.tree.SaveState()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// layout hands the tree whatever the chrome and the pairs list leave over.
func (m *Model) layout() {
	h := m.height - chromeHeight - m.pairsHeight() - m.picker.Height()
	if h < 1 {
		h = 1
	}
	m.tree.SetSize(m.width, h)
	m.picker.SetSize(m.width)
	m.editor.SetSize(m.width, m.height-chromeHeight)
	m.help.Width = m.width
}

// pairsHeight is the rows taken by the pairs list, capped at a third of the
// screen.
func (m *Model) pairsHeight() int {
	if len(m.pairs) == 0 {
		return 0
	}
	n := len(m.pairs) + 1
	if limit := m.height / 3; n > limit {
		n = limit
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch {
	case m.screen == ScreenEditing:
		body = m.editor.View()
	case m.showHelp:
		body = lipgloss.Place(m.width, m.height-chromeHeight, lipgloss.Center, lipgloss.Center,
			RenderContextHelp(m.keys, m.theme, m.width))
	default:
		body = m.tree.View()
		if m.picker.IsOpen() {
			body = lipgloss.JoinVertical(lipgloss.Left, m.picker.View(), body)
		}
		if ph := m.pairsHeight(); ph > 0 {
			body = lipgloss.JoinVertical(lipgloss.Left, body, m.renderPairs(ph))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	r := m.theme.Renderer
	stats := model.ComputeStats(m.tree.Tasks())

	title := m.theme.Header.Render("Tasks")
	scopeLabel := ""
	if name := m.picker.Active(); name != "" {
		scopeLabel = r.NewStyle().Foreground(m.theme.Secondary).Padding(0, 1).Render("scope: " + name)
	}
	counts := r.NewStyle().Foreground(m.theme.Muted).Padding(0, 1).
		Render(fmt.Sprintf("%d open · %d done", stats.Open, stats.Done))

	return lipgloss.JoinHorizontal(lipgloss.Top, title, scopeLabel, counts)
}

func (m *Model) renderPairs(rows int) string {
	r := m.theme.Renderer
	lines := RenderPairs(m.pairs, m.theme)
	rule := r.NewStyle().Foreground(m.theme.Border).Render("── pairs ──")
	return r.NewStyle().MaxHeight(rows).Render(lipgloss.JoinVertical(lipgloss.Left, rule, lines))
}

func (m *Model) renderFooter() string {
	r := m.theme.Renderer

	mode := "Normal Mode"
	editing := "Not Editing Anything"
	if m.screen == ScreenEditing {
		mode = "Editing mode"
		if m.editor.Field() == FieldKey {
			editing = "Editing JSON Key"
		} else {
			editing = "Editing JSON Value"
		}
	}

	modeStyle := r.NewStyle().Foreground(m.theme.Open).Padding(0, 1)
	if m.screen == ScreenEditing {
		modeStyle = modeStyle.Foreground(m.theme.Primary)
	}
	sections := []string{
		modeStyle.Render(mode),
		r.NewStyle().Foreground(m.theme.Secondary).Padding(0, 1).Render(editing),
	}

	switch {
	case m.loadErr != nil:
		sections = append(sections, m.theme.ErrorText.Padding(0, 1).Render("load failed: "+m.loadErr.Error()))
	case m.status != "":
		sections = append(sections, m.theme.MutedText.Padding(0, 1).Render(m.status))
	}

	var keys string
	if m.screen == ScreenEditing {
		keys = m.theme.MutedText.Padding(0, 1).Render("(ESC) to cancel / (TAB) to switch / (ENTER) to accept")
	} else {
		keys = r.NewStyle().Padding(0, 1).Render(m.help.View(m.keys))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, sections...),
		keys,
	)
}

// Pairs returns the key/value pairs entered during the session.
func (m Model) Pairs() model.Pairs {
	return m.pairs
}

// Screen returns the current input mode.
func (m Model) Screen() Screen {
	return m.screen
}

// Tree exposes the tree session for inspection.
func (m Model) Tree() *TreeModel {
	return m.tree
}

// LoadErr returns the error of the most recent failed load, if the
// following load has not succeeded yet.
func (m Model) LoadErr() error {
	return m.loadErr
}

// Status returns the transient footer message.
func (m Model) Status() string {
	return m.status
}
