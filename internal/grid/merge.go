package grid

import (
	"strings"

	"htmleditor/internal/dom"
)

// MergeCells merges the selected cells into the top-left cell of their
// bounding rectangle. The rectangle grows until no cell straddles its edge.
// Non-empty content of every covered cell is joined with spaces in
// row-major order; all other covered cells are removed.
func MergeCells(selected []*dom.Node) error {
	var cells []*dom.Node
	seen := make(map[*dom.Node]bool)
	for _, n := range selected {
		if n == nil {
			continue
		}
		cell := n.Closest("td", "th")
		if cell == nil {
			return ErrNotInTable
		}
		if !seen[cell] {
			seen[cell] = true
			cells = append(cells, cell)
		}
	}
	if len(cells) < 2 {
		return ErrTooFewCells
	}
	table := cells[0].Closest("table")
	for _, cell := range cells[1:] {
		if cell.Closest("table") != table {
			return ErrMixedTables
		}
	}

	g := Build(table)
	r0, c0, r1, c1 := -1, -1, -1, -1
	for _, cell := range cells {
		p, ok := g.Position(cell)
		if !ok {
			return ErrNotInTable
		}
		if r0 < 0 || p.Row < r0 {
			r0 = p.Row
		}
		if c0 < 0 || p.Col < c0 {
			c0 = p.Col
		}
		r1 = max(r1, p.Row+p.RowSpan)
		c1 = max(c1, p.Col+p.ColSpan)
	}
	for changed := true; changed; {
		changed = false
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				i := g.slot(r, c)
				if i < 0 {
					continue
				}
				q := g.pos[i]
				if q.Row < r0 {
					r0, changed = q.Row, true
				}
				if q.Col < c0 {
					c0, changed = q.Col, true
				}
				if q.Row+q.RowSpan > r1 {
					r1, changed = q.Row+q.RowSpan, true
				}
				if q.Col+q.ColSpan > c1 {
					c1, changed = q.Col+q.ColSpan, true
				}
			}
		}
	}

	keep := g.CellAt(r0, c0)
	if keep == nil {
		return ErrInvalidGrid
	}
	var parts []string
	var covered []*dom.Node
	done := make(map[int]bool)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			i := g.slot(r, c)
			if i < 0 || done[i] {
				continue
			}
			done[i] = true
			cell := g.Cells[i]
			if inner := strings.TrimSpace(cell.InnerHTML()); !isBlank(inner) {
				parts = append(parts, inner)
			}
			if cell != keep {
				covered = append(covered, cell)
			}
		}
	}

	content := strings.Join(parts, " ")
	if content == "" {
		content = "&nbsp;"
	}
	keep.SetInnerHTML(content)
	setSpan(keep, "rowspan", r1-r0)
	setSpan(keep, "colspan", c1-c0)
	for _, cell := range covered {
		cell.Detach()
	}
	log.Debugf("merged %d cells into %dx%d", len(covered)+1, r1-r0, c1-c0)
	return nil
}

func isBlank(inner string) bool {
	switch inner {
	case "", "&nbsp;", "<br>":
		return true
	}
	return false
}

// MergeDirectional merges a cell with the cell adjacent to its span in the
// given direction.
func MergeDirectional(n *dom.Node, dir Direction) error {
	g, cell, p, err := load(n)
	if err != nil {
		return err
	}
	var r, c int
	switch dir {
	case Left:
		r, c = p.Row, p.Col-1
	case Right:
		r, c = p.Row, p.Col+p.ColSpan
	case Up:
		r, c = p.Row-1, p.Col
	case Down:
		r, c = p.Row+p.RowSpan, p.Col
	default:
		return ErrBadDirection
	}
	other := g.CellAt(r, c)
	if other == nil {
		return ErrNoAdjacentCell
	}
	return MergeCells([]*dom.Node{cell, other})
}

// SplitCell resets a spanning cell to 1x1 and fills every slot it covered
// with a placeholder cell of the same style.
func SplitCell(n *dom.Node) error {
	g, cell, p, err := load(n)
	if err != nil {
		return err
	}
	if p.RowSpan == 1 && p.ColSpan == 1 {
		return ErrNotMerged
	}
	setSpan(cell, "rowspan", 1)
	setSpan(cell, "colspan", 1)
	for r := p.Row; r < p.Row+p.RowSpan; r++ {
		for c := p.Col; c < p.Col+p.ColSpan; c++ {
			if r == p.Row && c == p.Col {
				continue
			}
			g.place(r, c, placeholder(cell))
		}
	}
	log.Debugf("split %dx%d cell", p.RowSpan, p.ColSpan)
	return nil
}

// SplitDirectional takes one row or column off the cell's span on the given
// side and fills the freed slots with placeholder cells.
func SplitDirectional(n *dom.Node, dir Direction) error {
	g, cell, p, err := load(n)
	if err != nil {
		return err
	}
	switch dir {
	case Left, Right:
		if p.ColSpan == 1 {
			return ErrSpanIsOne
		}
		col := p.Col
		if dir == Right {
			col = p.Col + p.ColSpan - 1
		}
		setSpan(cell, "colspan", p.ColSpan-1)
		for r := p.Row; r < p.Row+p.RowSpan; r++ {
			g.place(r, col, placeholder(cell))
		}
	case Up, Down:
		if p.RowSpan == 1 {
			return ErrSpanIsOne
		}
		row := p.Row + p.RowSpan - 1
		setSpan(cell, "rowspan", p.RowSpan-1)
		if dir == Up {
			row = p.Row
			g.place(p.Row+1, p.Col, cell)
		}
		for c := p.Col; c < p.Col+p.ColSpan; c++ {
			g.place(row, c, placeholder(cell))
		}
	default:
		return ErrBadDirection
	}
	return nil
}
