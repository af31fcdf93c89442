package editor

import (
	"htmleditor/internal/dom"
	"htmleditor/internal/grid"
)

// Selection is the set of selected cells and the anchor of the last
// pointer interaction. Row and Table follow the anchor; a pick on a row or
// table outside any cell anchors only those.
type Selection struct {
	Cells  []string `json:"cells"`
	Anchor string   `json:"anchor,omitempty"`
	Row    string   `json:"row,omitempty"`
	Table  string   `json:"table,omitempty"`
	// Style is the anchor cell's current panel values, for property
	// panels opening on the selection.
	Style *CellProperties `json:"style,omitempty"`
}

func (s Selection) empty() bool {
	return len(s.Cells) == 0 && s.Anchor == "" && s.Row == "" && s.Table == ""
}

// IsZero reports whether t names nothing. Operations given a zero target
// fall back to the selection's anchor.
func (t Target) IsZero() bool {
	return t.ID == "" && t.Path == ""
}

// Select replaces the selection with the cell containing t. A row or table
// outside any cell becomes the anchor with no cells selected.
func (d *Document) Select(t Target) (Selection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := resolve(d.pipeline.Snapshot().Tree, t)
	if err != nil {
		return Selection{}, err
	}
	var anchor *dom.Node
	var cells []string
	if cell := n.Closest("td", "th"); cell != nil {
		anchor, cells = cell, []string{cell.ID}
	} else if anchor = n.Closest("tr"); anchor == nil {
		anchor = n.Closest("table")
	}
	if anchor == nil {
		return Selection{}, grid.ErrNotInTable
	}
	d.selection = Selection{Cells: cells}
	d.anchorOn(anchor)
	return d.selectionView(), nil
}

// ExtendSelection toggles the cell containing t. An added cell becomes the
// anchor; removing the anchor moves it to the last remaining cell.
func (d *Document) ExtendSelection(t Target) (Selection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cell, err := d.cellAt(t)
	if err != nil {
		return Selection{}, err
	}
	for i, id := range d.selection.Cells {
		if id == cell.ID {
			d.selection.Cells = append(d.selection.Cells[:i], d.selection.Cells[i+1:]...)
			if d.selection.Anchor == cell.ID {
				d.reanchor(d.pipeline.Snapshot().Tree)
			}
			return d.selectionView(), nil
		}
	}
	d.selection.Cells = append(d.selection.Cells, cell.ID)
	d.anchorOn(cell)
	return d.selectionView(), nil
}

func (d *Document) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = Selection{}
}

func (d *Document) Selection() Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectionView()
}

// anchorOn sets the anchor to n, which is a cell, row or table.
func (d *Document) anchorOn(n *dom.Node) {
	d.selection.Anchor, d.selection.Row, d.selection.Table = "", "", ""
	if n.IsElement("td", "th") {
		d.selection.Anchor = n.ID
	}
	if row := n.Closest("tr"); row != nil {
		d.selection.Row = row.ID
	}
	if table := n.Closest("table"); table != nil {
		d.selection.Table = table.ID
	}
}

// reanchor moves the anchor to the last selected cell still in tree, or
// keeps the row and table anchors when they survive.
func (d *Document) reanchor(tree *dom.Node) {
	for i := len(d.selection.Cells) - 1; i >= 0; i-- {
		if cell := dom.FindByID(tree, d.selection.Cells[i]); cell != nil {
			d.anchorOn(cell)
			return
		}
	}
	d.selection.Anchor = ""
	if d.selection.Row != "" && dom.FindByID(tree, d.selection.Row) == nil {
		d.selection.Row = ""
	}
	if d.selection.Table != "" && dom.FindByID(tree, d.selection.Table) == nil {
		d.selection.Table = ""
		d.selection.Row = ""
	}
}

// selectionView copies the selection and fills in the anchor's style.
// Callers hold mu.
func (d *Document) selectionView() Selection {
	s := d.selection
	s.Cells = append([]string{}, d.selection.Cells...)
	if s.Anchor != "" {
		if cell := dom.FindByID(d.pipeline.Snapshot().Tree, s.Anchor); cell != nil {
			style := ReadCellProperties(cell)
			s.Style = &style
		}
	}
	return s
}

func (d *Document) selectionCopy() []string {
	return append([]string{}, d.selection.Cells...)
}

// target returns t, or the selection's anchor when t is zero.
func (d *Document) target(t Target) Target {
	if !t.IsZero() {
		return t
	}
	for _, id := range []string{d.selection.Anchor, d.selection.Row, d.selection.Table} {
		if id != "" {
			return Target{ID: id}
		}
	}
	return t
}

func (d *Document) cellAt(t Target) (*dom.Node, error) {
	n, err := resolve(d.pipeline.Snapshot().Tree, d.target(t))
	if err != nil {
		return nil, err
	}
	cell := n.Closest("td", "th")
	if cell == nil {
		return nil, grid.ErrNotInTable
	}
	return cell, nil
}

// pruneSelection drops selected cells that no longer exist.
func (d *Document) pruneSelection(tree *dom.Node) {
	if d.selection.empty() {
		return
	}
	kept := d.selection.Cells[:0]
	for _, id := range d.selection.Cells {
		if dom.FindByID(tree, id) != nil {
			kept = append(kept, id)
		}
	}
	d.selection.Cells = kept
	if cell := dom.FindByID(tree, d.selection.Anchor); d.selection.Anchor != "" && cell != nil {
		d.anchorOn(cell)
		return
	}
	d.reanchor(tree)
}
