package editor

import (
	"htmleditor/internal/dom"
	"htmleditor/internal/grid"
	"htmleditor/internal/mutation"
)

func (d *Document) InsertRow(t Target, dir grid.Direction) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("insert-row", t, func(n *dom.Node) error { return grid.InsertRow(n, dir) })
}

func (d *Document) InsertColumn(t Target, dir grid.Direction) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("insert-column", t, func(n *dom.Node) error { return grid.InsertColumn(n, dir) })
}

func (d *Document) DeleteRow(t Target) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("delete-row", t, grid.DeleteRow)
}

func (d *Document) DeleteColumn(t Target) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("delete-column", t, grid.DeleteColumn)
}

func (d *Document) DeleteTable(t Target, confirmed bool) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("delete-table", t, func(n *dom.Node) error { return grid.DeleteTable(n, confirmed) })
}

// MergeSelection merges the selected cells. The selection is cleared on
// success.
func (d *Document) MergeSelection() (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := d.selectionCopy()
	res, err := d.commit(mutation.Func("merge-cells", func(root *dom.Node) error {
		cells := make([]*dom.Node, 0, len(ids))
		for _, id := range ids {
			if n := dom.FindByID(root, id); n != nil {
				cells = append(cells, n)
			}
		}
		return grid.MergeCells(cells)
	}), mutation.OriginTreeView)
	if err == nil {
		d.selection = Selection{}
	}
	return res, err
}

func (d *Document) MergeDirectional(t Target, dir grid.Direction) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("merge-"+dir.String(), t, func(n *dom.Node) error { return grid.MergeDirectional(n, dir) })
}

func (d *Document) SplitCell(t Target) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("split-cell", t, grid.SplitCell)
}

func (d *Document) SplitDirectional(t Target, dir grid.Direction) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onNode("split-"+dir.String(), t, func(n *dom.Node) error { return grid.SplitDirectional(n, dir) })
}

// BeginResize starts dragging the cell containing t from its measured
// size. Only one drag may be active.
func (d *Document) BeginResize(t Target, width, height int) (grid.Size, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drag != nil {
		return grid.Size{}, ErrResizeActive
	}
	n, err := resolve(d.pipeline.Snapshot().Tree, d.target(t))
	if err != nil {
		return grid.Size{}, err
	}
	drag, err := grid.BeginResize(n, width, height)
	if err != nil {
		return grid.Size{}, err
	}
	d.drag = drag
	return drag.Move(0, 0), nil
}

// MoveResize previews the size for a pointer delta. Nothing is committed.
func (d *Document) MoveResize(dx, dy int) (grid.Size, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drag == nil {
		return grid.Size{}, ErrNoResize
	}
	return d.drag.Move(dx, dy), nil
}

// EndResize commits the final size of the active drag as one mutation.
func (d *Document) EndResize() (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drag == nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, ErrNoResize
	}
	drag := d.drag
	d.drag = nil
	size, ok := drag.Release()
	if !ok {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, ErrNoResize
	}
	return d.commit(mutation.OnNode("resize-cell", drag.CellID, func(cell *dom.Node) error {
		grid.ApplySize(cell, size)
		return nil
	}), mutation.OriginTreeView)
}

// Resize applies a complete drag in one call.
func (d *Document) Resize(t Target, width, height, dx, dy int) (mutation.Result, error) {
	if _, err := d.BeginResize(t, width, height); err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	if _, err := d.MoveResize(dx, dy); err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	return d.EndResize()
}
