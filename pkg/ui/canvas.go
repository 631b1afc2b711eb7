package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Rect is a rectangular region of terminal cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the rect covers no cells.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the first column past the rect.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the first row past the rect.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether the cell (x, y) lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersect returns the overlap of r and o. The result is empty (zero size)
// when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Cell is one terminal cell. A zero Rune marks the trailing half of a
// double-width rune written into the cell to its left.
type Cell struct {
	Rune  rune
	Style lipgloss.Style
}

// Buffer is a grid of styled cells covering Area.
type Buffer struct {
	Area  Rect
	cells []Cell
}

// NewBuffer returns a buffer over area filled with unstyled spaces.
func NewBuffer(area Rect) *Buffer {
	if area.Width < 0 {
		area.Width = 0
	}
	if area.Height < 0 {
		area.Height = 0
	}
	b := &Buffer{
		Area:  area,
		cells: make([]Cell, area.Width*area.Height),
	}
	blank := lipgloss.NewStyle()
	for i := range b.cells {
		b.cells[i] = Cell{Rune: ' ', Style: blank}
	}
	return b
}

func (b *Buffer) index(x, y int) (int, bool) {
	if !b.Area.Contains(x, y) {
		return 0, false
	}
	return (y-b.Area.Y)*b.Area.Width + (x - b.Area.X), true
}

// Cell returns the cell at (x, y).
func (b *Buffer) Cell(x, y int) (Cell, bool) {
	i, ok := b.index(x, y)
	if !ok {
		return Cell{}, false
	}
	return b.cells[i], true
}

// SetString writes s starting at (x, y), using at most maxWidth columns and
// never writing past the buffer's right edge. A double-width rune that would
// straddle the limit is dropped. It returns the number of columns written.
func (b *Buffer) SetString(x, y int, s string, style lipgloss.Style, maxWidth int) int {
	if maxWidth <= 0 || y < b.Area.Y || y >= b.Area.Bottom() {
		return 0
	}
	limit := min(x+maxWidth, b.Area.Right())
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > limit {
			break
		}
		if i, ok := b.index(col, y); ok {
			b.cells[i] = Cell{Rune: r, Style: style}
		}
		if w == 2 {
			if i, ok := b.index(col+1, y); ok {
				b.cells[i] = Cell{Rune: 0, Style: style}
			}
		}
		col += w
	}
	return col - x
}

// Fill sets every cell in rect to r with the given style.
func (b *Buffer) Fill(rect Rect, r rune, style lipgloss.Style) {
	rect = rect.Intersect(b.Area)
	for y := rect.Y; y < rect.Bottom(); y++ {
		for x := rect.X; x < rect.Right(); x++ {
			i, _ := b.index(x, y)
			b.cells[i] = Cell{Rune: r, Style: style}
		}
	}
}

// SetStyle composites style over every cell in rect. Properties set on style
// take precedence; everything else is kept from the cell's current style.
func (b *Buffer) SetStyle(rect Rect, style lipgloss.Style) {
	rect = rect.Intersect(b.Area)
	for y := rect.Y; y < rect.Bottom(); y++ {
		for x := rect.X; x < rect.Right(); x++ {
			i, _ := b.index(x, y)
			b.cells[i].Style = style.Inherit(b.cells[i].Style)
		}
	}
}

// PlainLines returns the buffer contents without styling.
func (b *Buffer) PlainLines() []string {
	lines := make([]string, 0, b.Area.Height)
	for y := b.Area.Y; y < b.Area.Bottom(); y++ {
		var sb strings.Builder
		for x := b.Area.X; x < b.Area.Right(); x++ {
			c, _ := b.Cell(x, y)
			if c.Rune != 0 {
				sb.WriteRune(c.Rune)
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// Lines renders each buffer row, grouping adjacent cells that share a style
// into a single lipgloss render call.
func (b *Buffer) Lines() []string {
	lines := make([]string, 0, b.Area.Height)
	for y := b.Area.Y; y < b.Area.Bottom(); y++ {
		var (
			sb      strings.Builder
			run     strings.Builder
			runKey  styleKey
			runStyl lipgloss.Style
			started bool
		)
		flush := func() {
			if run.Len() > 0 {
				sb.WriteString(runStyl.Render(run.String()))
				run.Reset()
			}
		}
		for x := b.Area.X; x < b.Area.Right(); x++ {
			c, _ := b.Cell(x, y)
			if c.Rune == 0 {
				continue
			}
			key := keyOf(c.Style)
			if !started || key != runKey {
				flush()
				runKey, runStyl, started = key, c.Style, true
			}
			run.WriteRune(c.Rune)
		}
		flush()
		lines = append(lines, sb.String())
	}
	return lines
}

// String renders the whole buffer as newline separated rows.
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

// Equal reports whether two buffers cover the same area with identical
// runes and equivalent styles.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Area != o.Area || len(b.cells) != len(o.cells) {
		return false
	}
	for i := range b.cells {
		if b.cells[i].Rune != o.cells[i].Rune {
			return false
		}
		if keyOf(b.cells[i].Style) != keyOf(o.cells[i].Style) {
			return false
		}
	}
	return true
}

// styleKey holds the style attributes a cell can carry. Unlike a rendered
// escape sequence it does not depend on the terminal's color profile.
type styleKey struct {
	fg, bg        lipgloss.TerminalColor
	bold, italic  bool
	underline     bool
	strikethrough bool
	reverse       bool
	blink, faint  bool
}

func keyOf(s lipgloss.Style) styleKey {
	return styleKey{
		fg:            s.GetForeground(),
		bg:            s.GetBackground(),
		bold:          s.GetBold(),
		italic:        s.GetItalic(),
		underline:     s.GetUnderline(),
		strikethrough: s.GetStrikethrough(),
		reverse:       s.GetReverse(),
		blink:         s.GetBlink(),
		faint:         s.GetFaint(),
	}
}
