package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StyleConfig lists every appearance option the tree renderer understands.
// Nothing is defaulted inside the renderer; see NewStyleConfig for the
// values the application uses.
type StyleConfig struct {
	Indicator  string         // drawn on the first row of the selected item
	Highlight  lipgloss.Style // composited over the selected item's rows
	Base       lipgloss.Style // every other cell the renderer writes
	IndentUnit int            // columns per nesting level
	DoneMark   string         // prefix for complete tasks, may be empty
	TodoMark   string         // prefix for open tasks, may be empty
}

// markWidth is the column reserved for the completion mark, including a
// trailing separator when any mark is configured.
func (c StyleConfig) markWidth() int {
	w := max(runewidth.StringWidth(c.DoneMark), runewidth.StringWidth(c.TodoMark))
	if w == 0 {
		return 0
	}
	return w + 1
}

// RenderTree paints visible items into buf, confined to area.
//
// Items are stacked top to bottom; each row is laid out as the indicator
// column, Depth columns of indent, the completion mark and then the text,
// all clipped to the area width. selected indexes into visible and -1 means
// nothing is highlighted. An item that does not fit in the remaining rows
// is skipped; later items that fit are still drawn.
func RenderTree(visible []FlatItem, cfg StyleConfig, selected int, area Rect, buf *Buffer) {
	if buf == nil {
		return
	}
	area = area.Intersect(buf.Area)
	if area.Empty() {
		return
	}

	indicatorWidth := runewidth.StringWidth(cfg.Indicator)
	indicatorPad := strings.Repeat(" ", indicatorWidth)
	markWidth := cfg.markWidth()

	y := area.Y
	for i, item := range visible {
		height := item.Height()
		if y+height > area.Bottom() {
			continue
		}

		mark := cfg.TodoMark
		if item.Complete {
			mark = cfg.DoneMark
		}

		for row, text := range item.Lines() {
			line := y + row
			buf.Fill(Rect{X: area.X, Y: line, Width: area.Width, Height: 1}, ' ', cfg.Base)

			x, remaining := area.X, area.Width

			indicator := indicatorPad
			if i == selected && row == 0 {
				indicator = cfg.Indicator
			}
			buf.SetString(x, line, indicator, cfg.Base, remaining)
			x, remaining = x+indicatorWidth, remaining-indicatorWidth

			// indent cells are already base-filled
			x, remaining = x+item.Depth, remaining-item.Depth

			if markWidth > 0 && remaining > 0 {
				if row == 0 {
					buf.SetString(x, line, mark, cfg.Base, min(remaining, markWidth))
				}
				x, remaining = x+markWidth, remaining-markWidth
			}

			if remaining > 0 {
				buf.SetString(x, line, text, cfg.Base, remaining)
			}
		}

		if i == selected {
			buf.SetStyle(Rect{X: area.X, Y: y, Width: area.Width, Height: height}, cfg.Highlight)
		}
		y += height
	}
}
