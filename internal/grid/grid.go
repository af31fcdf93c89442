// Package grid implements the table algebra: locating cells in the
// occupancy grid of a table and inserting, deleting, merging and
// splitting rows, columns and spanning cells.
package grid

import (
	"fmt"

	"github.com/tliron/commonlog"

	"htmleditor/internal/dom"
)

var log = commonlog.GetLogger("htmleditor.grid")

// Span limits, as browsers apply them.
const (
	MaxColSpan = 1000
	MaxRowSpan = 65534
)

// Position is a cell's place in the occupancy grid.
type Position struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
	RowNode *dom.Node
	Table   *dom.Node
}

// Grid is the occupancy grid of one table, built fresh for every
// operation. slots[r][c] holds the index of the cell covering that slot,
// or -1 for a gap.
type Grid struct {
	Table *dom.Node
	Rows  []*dom.Node
	Cells []*dom.Node

	pos      []Position
	index    map[*dom.Node]int
	slots    [][]int
	overlaps int
	clipped  int
}

// Build scans a table's rows and cells into a Grid. Rows come from the
// table itself and its thead, tbody and tfoot sections, never from nested
// tables. A rowspan reaching past the last row is clipped.
func Build(table *dom.Node) *Grid {
	g := &Grid{Table: table, index: make(map[*dom.Node]int)}
	g.Rows = Rows(table)
	g.slots = make([][]int, len(g.Rows))

	for r, row := range g.Rows {
		col := 0
		for _, cell := range row.ElementChildren() {
			if !cell.IsElement("td", "th") {
				continue
			}
			for col < len(g.slots[r]) && g.slots[r][col] >= 0 {
				col++
			}
			rs := min(cell.IntAttr("rowspan", 1), MaxRowSpan)
			cs := min(cell.IntAttr("colspan", 1), MaxColSpan)
			if r+rs > len(g.Rows) {
				g.clipped++
				rs = len(g.Rows) - r
			}
			idx := len(g.Cells)
			g.Cells = append(g.Cells, cell)
			g.index[cell] = idx
			g.pos = append(g.pos, Position{Row: r, Col: col, RowSpan: rs, ColSpan: cs, RowNode: row, Table: table})
			for dr := 0; dr < rs; dr++ {
				for dc := 0; dc < cs; dc++ {
					g.fill(r+dr, col+dc, idx)
				}
			}
			col += cs
		}
	}

	width := g.Width()
	for r := range g.slots {
		for len(g.slots[r]) < width {
			g.slots[r] = append(g.slots[r], -1)
		}
	}
	return g
}

func (g *Grid) fill(r, c, idx int) {
	for len(g.slots[r]) <= c {
		g.slots[r] = append(g.slots[r], -1)
	}
	if g.slots[r][c] >= 0 {
		g.overlaps++
		return
	}
	g.slots[r][c] = idx
}

// Rows returns the tr elements that belong to table.
func Rows(table *dom.Node) []*dom.Node {
	var rows []*dom.Node
	for _, c := range table.ElementChildren() {
		switch c.Tag {
		case "tr":
			rows = append(rows, c)
		case "thead", "tbody", "tfoot":
			for _, r := range c.ElementChildren() {
				if r.IsElement("tr") {
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

// Height is the number of rows.
func (g *Grid) Height() int { return len(g.slots) }

// Width is the number of grid columns.
func (g *Grid) Width() int {
	w := 0
	for _, row := range g.slots {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// CellAt returns the cell covering slot (r, c), or nil.
func (g *Grid) CellAt(r, c int) *dom.Node {
	if i := g.slot(r, c); i >= 0 {
		return g.Cells[i]
	}
	return nil
}

func (g *Grid) slot(r, c int) int {
	if r < 0 || r >= len(g.slots) || c < 0 || c >= len(g.slots[r]) {
		return -1
	}
	return g.slots[r][c]
}

// Position returns the grid position of a cell of this table.
func (g *Grid) Position(cell *dom.Node) (Position, bool) {
	i, ok := g.index[cell]
	if !ok {
		return Position{}, false
	}
	return g.pos[i], true
}

// Validate checks that the cells tile the grid with no gaps or overlaps
// and that no rowspan runs past the last row.
func (g *Grid) Validate() error {
	if g.overlaps > 0 {
		return fmt.Errorf("%w: %d overlapping slots", ErrInvalidGrid, g.overlaps)
	}
	if g.clipped > 0 {
		return fmt.Errorf("%w: %d cells span past the last row", ErrInvalidGrid, g.clipped)
	}
	for r, row := range g.slots {
		for c, idx := range row {
			if idx < 0 {
				return fmt.Errorf("%w: gap at row %d column %d", ErrInvalidGrid, r, c)
			}
		}
	}
	return nil
}

// Locate returns the grid position of a cell, walking up from any node
// inside it.
func Locate(n *dom.Node) (Position, error) {
	_, _, p, err := load(n)
	return p, err
}

// load builds the grid for the table owning the cell that contains n.
func load(n *dom.Node) (*Grid, *dom.Node, Position, error) {
	cell := n.Closest("td", "th")
	if cell == nil {
		return nil, nil, Position{}, ErrNotInTable
	}
	table := cell.Closest("table")
	if table == nil {
		return nil, nil, Position{}, ErrNotInTable
	}
	g := Build(table)
	p, ok := g.Position(cell)
	if !ok {
		return nil, nil, Position{}, ErrNotInTable
	}
	return g, cell, p, nil
}

// place inserts cell into row r so that it lands at grid column col: before
// the first cell starting in that row at or after col. Positions are read
// from g, which may be stale for nodes added since it was built; those
// nodes are skipped.
func (g *Grid) place(r, col int, cell *dom.Node) {
	row := g.Rows[r]
	for _, c := range row.Children {
		i, ok := g.index[c]
		if !ok || c == cell {
			continue
		}
		if g.pos[i].Col >= col {
			row.InsertBefore(cell, c)
			return
		}
	}
	row.AppendChild(cell)
}

func setSpan(cell *dom.Node, key string, n int) {
	switch key {
	case "colspan":
		n = min(n, MaxColSpan)
	case "rowspan":
		n = min(n, MaxRowSpan)
	}
	if n <= 1 {
		cell.RemoveAttr(key)
		return
	}
	cell.SetAttr(key, fmt.Sprint(n))
}

// placeholder returns an empty cell carrying the style of template.
func placeholder(template *dom.Node) *dom.Node {
	tag := "td"
	if template != nil && template.IsElement("th") {
		tag = "th"
	}
	cell := dom.NewElement(tag)
	if template != nil {
		cell.CopyStyle(template)
	}
	cell.AppendChild(dom.NewText(nbsp))
	return cell
}

const nbsp = "\u00a0"

// firstCell returns the first td or th child of row.
func firstCell(row *dom.Node) *dom.Node {
	for _, c := range row.ElementChildren() {
		if c.IsElement("td", "th") {
			return c
		}
	}
	return nil
}
