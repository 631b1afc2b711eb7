package ui

// ViewportState is the scroll position and selection carried across frames.
// Offset is the index of the first visible item; Selected is the index of
// the highlighted item. Rows records the height of the last drawn area and
// sizes page moves.
type ViewportState struct {
	Offset   int
	Selected int
	Rows     int
}

// Window is the half-open range [Start, End) of visible item indices.
type Window struct {
	Start, End int
}

// Len returns the number of items in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Empty reports whether the window holds no items.
func (w Window) Empty() bool {
	return w.End <= w.Start
}

// Contains reports whether index i is visible.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// CalcWindow computes the scroll offset that keeps selected visible within
// rows, and the range of whole items that fit from that offset.
//
// height reports the rows taken by item i; values below 1 count as 1 and a
// nil func means every item is one row. When rows or total is not positive
// the window is empty and offset is returned unchanged. An item taller than
// rows is never shown, so selecting one yields an empty window.
func CalcWindow(total int, height func(int) int, offset, selected, rows int) (int, Window) {
	if rows <= 0 || total <= 0 {
		return offset, Window{}
	}

	h := func(i int) int {
		if height == nil {
			return 1
		}
		if v := height(i); v > 1 {
			return v
		}
		return 1
	}

	selected = clamp(selected, 0, total-1)
	offset = clamp(offset, 0, total-1)

	if selected < offset {
		offset = selected
	} else {
		used := 0
		for i := offset; i <= selected; i++ {
			used += h(i)
		}
		for used > rows && offset < selected {
			used -= h(offset)
			offset++
		}
	}

	end, used := offset, 0
	for end < total {
		next := used + h(end)
		if next > rows {
			break
		}
		used = next
		end++
	}
	return offset, Window{Start: offset, End: end}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
