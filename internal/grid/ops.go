package grid

import (
	"strings"

	"htmleditor/internal/dom"
)

// Direction picks a side of a cell.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Row insertion reads more naturally as above/below.
const (
	Above = Up
	Below = Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// ParseDirection accepts up/down/left/right and above/below.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "above":
		return Up, nil
	case "down", "below":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, ErrBadDirection
}

// InsertRow adds a row at the boundary above or below the anchor cell's
// span. Cells spanning across that boundary grow by one row; every other
// column receives a placeholder cell styled like the anchor row's first
// cell.
func InsertRow(anchor *dom.Node, dir Direction) error {
	g, _, p, err := load(anchor)
	if err != nil {
		return err
	}
	var k int
	switch dir {
	case Up:
		k = p.Row
	case Down:
		k = p.Row + p.RowSpan
	default:
		return ErrBadDirection
	}

	template := firstCell(p.RowNode)
	tr := dom.NewElement("tr")
	grown := make(map[int]bool)
	for c := 0; c < g.Width(); c++ {
		if k > 0 && k < g.Height() {
			if i := g.slots[k-1][c]; i >= 0 && i == g.slots[k][c] {
				if !grown[i] {
					grown[i] = true
					setSpan(g.Cells[i], "rowspan", g.pos[i].RowSpan+1)
				}
				continue
			}
		}
		tr.AppendChild(placeholder(template))
	}

	if k < g.Height() {
		ref := g.Rows[k]
		ref.Parent.InsertBefore(tr, ref)
	} else {
		last := g.Rows[g.Height()-1]
		last.Parent.InsertAfter(tr, last)
	}
	log.Debugf("inserted row at %d", k)
	return nil
}

// InsertColumn adds a column at the boundary left or right of the anchor
// cell's span. Cells spanning across that boundary grow by one column; every
// other row receives a placeholder cell styled like that row's first cell.
func InsertColumn(anchor *dom.Node, dir Direction) error {
	g, cell, p, err := load(anchor)
	if err != nil {
		return err
	}
	var k int
	switch dir {
	case Left:
		k = p.Col
	case Right:
		k = p.Col + p.ColSpan
	default:
		return ErrBadDirection
	}

	grown := make(map[int]bool)
	for r := 0; r < g.Height(); r++ {
		if k > 0 && k < g.Width() {
			if i := g.slots[r][k-1]; i >= 0 && i == g.slots[r][k] {
				if !grown[i] {
					grown[i] = true
					setSpan(g.Cells[i], "colspan", g.pos[i].ColSpan+1)
				}
				continue
			}
		}
		template := firstCell(g.Rows[r])
		if template == nil {
			template = cell
		}
		g.place(r, k, placeholder(template))
	}
	log.Debugf("inserted column at %d", k)
	return nil
}

// DeleteRow removes the row in which the cell starts. Cells spanning into it
// from above shrink; cells starting in it and spanning further move down to
// the next row with one row less.
func DeleteRow(n *dom.Node) error {
	g, _, p, err := load(n)
	if err != nil {
		return err
	}
	if g.Height() <= 1 {
		return ErrLastRow
	}
	r := p.Row
	seen := make(map[int]bool)
	for c := 0; c < g.Width(); c++ {
		i := g.slots[r][c]
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		q := g.pos[i]
		switch {
		case q.Row < r:
			setSpan(g.Cells[i], "rowspan", q.RowSpan-1)
		case q.RowSpan > 1:
			setSpan(g.Cells[i], "rowspan", q.RowSpan-1)
			g.place(r+1, q.Col, g.Cells[i])
		}
	}
	g.Rows[r].Detach()
	log.Debugf("deleted row %d", r)
	return nil
}

// DeleteColumn removes the grid column in which the cell starts. Cells
// spanning it shrink by one column; single-column cells are removed.
func DeleteColumn(n *dom.Node) error {
	g, _, p, err := load(n)
	if err != nil {
		return err
	}
	if g.Width() <= 1 {
		return ErrLastColumn
	}
	c := p.Col
	seen := make(map[int]bool)
	for r := 0; r < g.Height(); r++ {
		i := g.slots[r][c]
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		if q := g.pos[i]; q.ColSpan > 1 {
			setSpan(g.Cells[i], "colspan", q.ColSpan-1)
		} else {
			g.Cells[i].Detach()
		}
	}
	log.Debugf("deleted column %d", c)
	return nil
}

// DeleteTable removes the table containing n once the user has confirmed.
func DeleteTable(n *dom.Node, confirmed bool) error {
	table := n.Closest("table")
	if table == nil {
		return ErrNotInTable
	}
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	table.Detach()
	return nil
}
