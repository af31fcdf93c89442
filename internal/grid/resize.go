package grid

import (
	"fmt"
	"strconv"
	"strings"

	"htmleditor/internal/dom"
)

const (
	MinCellWidth  = 30
	MinCellHeight = 20

	lockWidthAttr  = "data-lock-width"
	lockHeightAttr = "data-lock-height"
)

// Size is the outcome of a resize. An axis locked on the table is left
// unset.
type Size struct {
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	HasWidth  bool `json:"hasWidth"`
	HasHeight bool `json:"hasHeight"`
}

// Drag tracks one resize interaction on a cell. Moves only compute the
// size; Release hands back the final size exactly once so the caller can
// commit a single mutation.
type Drag struct {
	CellID string

	startWidth  int
	startHeight int
	lockWidth   bool
	lockHeight  bool
	current     Size
	released    bool
}

// BeginResize starts a drag from the cell's measured size.
func BeginResize(n *dom.Node, startWidth, startHeight int) (*Drag, error) {
	cell := n.Closest("td", "th")
	if cell == nil {
		return nil, ErrNotInTable
	}
	d := &Drag{CellID: cell.ID, startWidth: startWidth, startHeight: startHeight}
	if table := cell.Closest("table"); table != nil {
		d.lockWidth, d.lockHeight = Locks(table)
	}
	d.current = d.size(0, 0)
	return d, nil
}

func (d *Drag) size(dx, dy int) Size {
	var s Size
	if !d.lockWidth {
		s.Width, s.HasWidth = max(MinCellWidth, d.startWidth+dx), true
	}
	if !d.lockHeight {
		s.Height, s.HasHeight = max(MinCellHeight, d.startHeight+dy), true
	}
	return s
}

// Move updates the drag with the pointer delta from its start.
func (d *Drag) Move(dx, dy int) Size {
	if d.released {
		return d.current
	}
	d.current = d.size(dx, dy)
	return d.current
}

// Release ends the drag. The second result is false if it already ended.
func (d *Drag) Release() (Size, bool) {
	if d.released {
		return Size{}, false
	}
	d.released = true
	return d.current, true
}

// ApplySize writes a resize result to a cell: width and min-width for the
// horizontal axis, height for the vertical one.
func ApplySize(cell *dom.Node, s Size) {
	if s.HasWidth {
		w := fmt.Sprintf("%dpx", s.Width)
		cell.SetStyle("width", w)
		cell.SetStyle("min-width", w)
	}
	if s.HasHeight {
		cell.SetStyle("height", fmt.Sprintf("%dpx", s.Height))
	}
}

// Locks reads the table's width and height lock flags.
func Locks(table *dom.Node) (width, height bool) {
	return table.Attr(lockWidthAttr) == "true", table.Attr(lockHeightAttr) == "true"
}

// SetLocks writes the table's lock flags. A locked axis also pins its
// current length in a --locked-width or --locked-height custom property.
func SetLocks(table *dom.Node, width, height bool) {
	setFlag(table, lockWidthAttr, "--locked-width", "width", width)
	setFlag(table, lockHeightAttr, "--locked-height", "height", height)
}

func setFlag(n *dom.Node, key, custom, prop string, on bool) {
	if on {
		n.SetAttr(key, "true")
		n.SetStyle(custom, n.Style.Get(prop))
		return
	}
	n.RemoveAttr(key)
	n.Style.Delete(custom)
}

// PixelValue parses a CSS length in px such as "120px".
func PixelValue(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}
