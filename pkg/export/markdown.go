// Package export renders task snapshots as markdown checklists.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/tend/pkg/model"
	"github.com/vanderheijden86/tend/pkg/ui"
)

// Options controls GenerateMarkdown.
type Options struct {
	Title  string
	Indent int       // spaces per nesting level, at least 2 for valid markdown
	Now    time.Time // zero omits the Generated line
}

// GenerateMarkdown creates a markdown checklist of tasks, which must already
// be in display order. Nesting follows the tree view.
func GenerateMarkdown(tasks []model.Task, opts Options) string {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = "Tasks"
	}
	indent := opts.Indent
	if indent < 2 {
		indent = 2
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	if !opts.Now.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", opts.Now.Format(time.RFC1123)))
	}

	stats := model.ComputeStats(tasks)
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total**: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("- **Open**: %d\n", stats.Open))
	sb.WriteString(fmt.Sprintf("- **Done**: %d\n\n", stats.Done))

	if len(tasks) == 0 {
		sb.WriteString("_No tasks._\n")
		return sb.String()
	}

	sb.WriteString("## Tasks\n\n")
	var stack ui.AncestorStack
	for _, item := range ui.Flatten(tasks, &stack, indent) {
		pad := strings.Repeat(" ", item.Depth)
		box := "[ ]"
		if item.Complete {
			box = "[x]"
		}
		lines := item.Lines()
		sb.WriteString(fmt.Sprintf("%s- %s %s\n", pad, box, escapeLine(lines[0])))
		// continuation lines align under the text
		cont := pad + strings.Repeat(" ", len("- [ ] "))
		for _, line := range lines[1:] {
			sb.WriteString(cont + escapeLine(line) + "\n")
		}
	}

	return sb.String()
}

// escapeLine keeps task text from being read as markdown structure.
func escapeLine(s string) string {
	s = strings.TrimRight(s, " \t")
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '>', '-', '+', '*', '|':
		return `\` + s
	}
	return s
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(tasks []model.Task, opts Options, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	content := GenerateMarkdown(tasks, opts)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// RenderMarkdown renders markdown for the terminal. style is a glamour
// standard style name ("dark", "light", "notty", ...) or "auto".
func RenderMarkdown(md, style string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
