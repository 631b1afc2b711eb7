// tree.go - Hierarchical task view: one draw entry point plus command handling
package ui

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tend/pkg/model"
)

// Command is a decoded input event understood by the tree view.
type Command int

const (
	CmdNone Command = iota
	CmdUp
	CmdDown
	CmdTop
	CmdBottom
	CmdPageUp
	CmdPageDown
	CmdQuit
)

func (c Command) String() string {
	switch c {
	case CmdUp:
		return "up"
	case CmdDown:
		return "down"
	case CmdTop:
		return "top"
	case CmdBottom:
		return "bottom"
	case CmdPageUp:
		return "page-up"
	case CmdPageDown:
		return "page-down"
	case CmdQuit:
		return "quit"
	default:
		return "none"
	}
}

// Draw runs one frame: it flattens tasks with the caller's stack, picks the
// window of items that fit area, paints them into buf and writes the new
// offset back into state. The flattened items are returned so callers can
// resolve the selection without flattening again.
//
// Nothing is written to buf when no item fits.
func Draw(area Rect, buf *Buffer, tasks []model.Task, stack *AncestorStack, state *ViewportState, cfg StyleConfig) []FlatItem {
	items := Flatten(tasks, stack, cfg.IndentUnit)
	if state == nil {
		state = &ViewportState{}
	}
	if buf == nil {
		area = Rect{}
	} else {
		area = area.Intersect(buf.Area)
	}

	offset, win := CalcWindow(len(items), func(i int) int {
		return items[i].Height()
	}, state.Offset, state.Selected, area.Height)

	state.Offset = offset
	state.Rows = area.Height
	if len(items) > 0 {
		state.Selected = clamp(state.Selected, 0, len(items)-1)
	}

	if win.Empty() {
		return items
	}

	selected := -1
	if win.Contains(state.Selected) {
		selected = state.Selected - win.Start
	}
	RenderTree(items[win.Start:win.End], cfg, selected, area, buf)
	return items
}

// Update applies cmd to the selection. total is the number of flattened
// items; the snapshot is not needed. It reports whether the view should
// quit.
func Update(cmd Command, state *ViewportState, total int) bool {
	if cmd == CmdQuit {
		return true
	}

	switch cmd {
	case CmdUp:
		state.Selected--
	case CmdDown:
		state.Selected++
	case CmdTop:
		state.Selected = 0
	case CmdBottom:
		state.Selected = total - 1
	case CmdPageUp:
		state.Selected -= pageSize(state.Rows)
	case CmdPageDown:
		state.Selected += pageSize(state.Rows)
	}

	if total <= 0 {
		state.Selected = 0
		return false
	}
	state.Selected = clamp(state.Selected, 0, total-1)
	if state.Selected < state.Offset {
		state.Offset = state.Selected
	}
	return false
}

// pageSize moves by half a viewport.
func pageSize(rows int) int {
	n := rows / 2
	if n < 1 {
		n = 5
	}
	return n
}

// TreeState represents the persistent state of the tree view.
// This is saved to <state dir>/tree-state.json to restore the selection
// across sessions.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "selected_id": 42
//	}
//
// A corrupted or missing file means the first task is selected.
type TreeState struct {
	Version    int   `json:"version"`
	SelectedID int64 `json:"selected_id,omitempty"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file inside dir.
func TreeStatePath(dir string) string {
	return filepath.Join(dir, treeStateFileName)
}

// TreeModel owns the per-session state of the tree view: the task snapshot,
// the ancestor stack and the viewport.
type TreeModel struct {
	tasks []model.Task
	stack AncestorStack
	state ViewportState
	style StyleConfig
	theme Theme

	width  int
	height int

	built    bool
	restored bool

	stateDir string
	logger   *log.Logger
}

// NewTreeModel creates an empty tree model
func NewTreeModel(theme Theme, style StyleConfig) TreeModel {
	return TreeModel{
		theme:  theme,
		style:  style,
		logger: log.New(io.Discard),
	}
}

// SetStateDir enables selection persistence under dir. Call before the
// first SetTasks.
func (t *TreeModel) SetStateDir(dir string) {
	t.stateDir = dir
}

// SetLogger routes persistence warnings to logger.
func (t *TreeModel) SetLogger(logger *log.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// SetSize updates the available dimensions for the tree view
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// SetStyle replaces the renderer options.
func (t *TreeModel) SetStyle(style StyleConfig) {
	t.style = style
}

// SetTasks installs a new snapshot. The selected task is kept by id when it
// still exists; on the first non-empty snapshot the persisted selection is
// restored.
func (t *TreeModel) SetTasks(tasks []model.Task) {
	prevID, hadPrev := t.SelectedID()

	t.tasks = tasks
	t.built = true

	if !t.restored && len(tasks) > 0 {
		t.restored = true
		if state := t.loadState(); state != nil && state.SelectedID != 0 {
			t.SelectByID(state.SelectedID)
		}
		return
	}
	if hadPrev && t.SelectByID(prevID) {
		return
	}
	Update(CmdNone, &t.state, len(t.tasks))
}

// Apply runs a command against the current snapshot and reports whether
// the view should quit. The selection is persisted on quit.
func (t *TreeModel) Apply(cmd Command) bool {
	quit := Update(cmd, &t.state, len(t.tasks))
	if quit {
		t.SaveState()
	}
	return quit
}

// SelectedTask returns the currently selected task, or nil if none.
func (t *TreeModel) SelectedTask() *model.Task {
	if t.state.Selected >= 0 && t.state.Selected < len(t.tasks) {
		return &t.tasks[t.state.Selected]
	}
	return nil
}

// SelectedID returns the id of the selected task.
func (t *TreeModel) SelectedID() (int64, bool) {
	if task := t.SelectedTask(); task != nil {
		return task.ID, true
	}
	return 0, false
}

// SelectByID moves the selection to the task with the given id.
// Returns true if found, false otherwise.
func (t *TreeModel) SelectByID(id int64) bool {
	for i := range t.tasks {
		if t.tasks[i].ID == id {
			t.state.Selected = i
			if i < t.state.Offset {
				t.state.Offset = i
			}
			return true
		}
	}
	return false
}

// State returns a copy of the viewport state.
func (t *TreeModel) State() ViewportState {
	return t.state
}

// Tasks returns the current snapshot.
func (t *TreeModel) Tasks() []model.Task {
	return t.tasks
}

// IsBuilt reports whether a snapshot has been installed.
func (t *TreeModel) IsBuilt() bool {
	return t.built
}

// Len returns the number of tasks in the snapshot.
func (t *TreeModel) Len() int {
	return len(t.tasks)
}

// View renders the tree view.
func (t *TreeModel) View() string {
	if !t.built || len(t.tasks) == 0 {
		return t.renderEmptyState()
	}

	width, height := t.width, t.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 20
	}

	buf := NewBuffer(Rect{Width: width, Height: height})
	Draw(buf.Area, buf, t.tasks, &t.stack, &t.state, t.style)
	return buf.String()
}

// renderEmptyState renders the view when there are no tasks.
func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer

	titleStyle := r.NewStyle().
		Foreground(t.theme.Primary).
		Bold(true)

	mutedStyle := r.NewStyle().
		Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tasks"))
	sb.WriteString("\n\n")
	if !t.built {
		sb.WriteString(mutedStyle.Render("Loading tasks..."))
		return sb.String()
	}
	sb.WriteString(mutedStyle.Render("No tasks to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Add one from another terminal:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(`  tend add "Write the report"`))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Press q to quit."))

	return sb.String()
}

// SaveState persists the selection to disk.
// Errors are logged but do not interrupt the user experience.
func (t *TreeModel) SaveState() {
	if t.stateDir == "" {
		return
	}
	state := TreeState{Version: TreeStateVersion}
	if id, ok := t.SelectedID(); ok {
		state.SelectedID = id
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.logger.Warn("failed to marshal tree state", "err", err)
		return
	}

	if err := os.MkdirAll(t.stateDir, 0o755); err != nil {
		t.logger.Warn("failed to create state directory", "dir", t.stateDir, "err", err)
		return
	}

	path := TreeStatePath(t.stateDir)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.logger.Warn("failed to write tree state", "path", path, "err", err)
	}
}

// loadState reads the persisted selection. A missing file is the first run
// and returns nil silently.
func (t *TreeModel) loadState() *TreeState {
	if t.stateDir == "" {
		return nil
	}
	path := TreeStatePath(t.stateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		t.logger.Warn("invalid tree state file, using defaults", "err", err)
		return nil
	}
	if state.Version != TreeStateVersion {
		t.logger.Warn("unsupported tree state version", "version", state.Version)
		return nil
	}
	return &state
}
