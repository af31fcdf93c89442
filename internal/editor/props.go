package editor

import (
	"fmt"
	"strconv"
	"strings"

	"htmleditor/internal/dom"
	"htmleditor/internal/grid"
	"htmleditor/internal/mutation"
)

const (
	defaultBorderColor  = "#d1d5db"
	defaultOutlineColor = "#1f2937"
)

// CellProperties is the state of the cell panel.
type CellProperties struct {
	Width         string `json:"width"`
	Height        string `json:"height"`
	TextAlign     string `json:"textAlign"`
	VerticalAlign string `json:"verticalAlign"`
	Background    string `json:"backgroundColor"`
	BorderColor   string `json:"borderColor"`
	BorderWidth   int    `json:"borderWidth"`
	BorderStyle   string `json:"borderStyle"`
	Padding       int    `json:"padding"`
}

func ReadCellProperties(cell *dom.Node) CellProperties {
	width, style, color := borderOf(cell)
	return CellProperties{
		Width:         cell.Style.Get("width"),
		Height:        cell.Style.Get("height"),
		TextAlign:     or(cell.Style.Get("text-align"), "left"),
		VerticalAlign: or(cell.Style.Get("vertical-align"), "top"),
		Background:    cell.Style.Get("background-color"),
		BorderColor:   color,
		BorderWidth:   width,
		BorderStyle:   style,
		Padding:       pixels(cell.Style.Get("padding"), 8),
	}
}

// ApplyCellProperties writes p to cell. Empty width, height, background
// and border color leave the current values alone.
func ApplyCellProperties(cell *dom.Node, p CellProperties) {
	if p.Width != "" {
		w := length(p.Width)
		cell.SetStyle("width", w)
		cell.SetStyle("min-width", w)
	}
	if p.Height != "" {
		cell.SetStyle("height", length(p.Height))
	}
	cell.SetStyle("text-align", or(p.TextAlign, "left"))
	cell.SetStyle("vertical-align", or(p.VerticalAlign, "top"))
	if p.Background != "" {
		cell.SetStyle("background-color", p.Background)
	}
	if p.BorderColor != "" {
		cell.SetStyle("border", fmt.Sprintf("%dpx %s %s", p.BorderWidth, or(p.BorderStyle, "solid"), p.BorderColor))
	}
	cell.SetStyle("padding", fmt.Sprintf("%dpx", max(p.Padding, 0)))
}

// RowProperties is the state of the row panel. Alignment and background
// are also pushed down to the row's cells.
type RowProperties struct {
	Height        string `json:"height"`
	Background    string `json:"backgroundColor"`
	TextAlign     string `json:"textAlign"`
	VerticalAlign string `json:"verticalAlign"`
}

func ReadRowProperties(row *dom.Node) RowProperties {
	return RowProperties{
		Height:        row.Style.Get("height"),
		Background:    row.Style.Get("background-color"),
		TextAlign:     or(row.Style.Get("text-align"), "left"),
		VerticalAlign: or(row.Style.Get("vertical-align"), "middle"),
	}
}

func ApplyRowProperties(row *dom.Node, p RowProperties) {
	if p.Height != "" {
		row.SetStyle("height", length(p.Height))
	}
	if p.Background != "" {
		row.SetStyle("background-color", p.Background)
	}
	for _, cell := range row.ElementChildren() {
		if !cell.IsElement("td", "th") {
			continue
		}
		cell.SetStyle("text-align", or(p.TextAlign, "left"))
		cell.SetStyle("vertical-align", or(p.VerticalAlign, "middle"))
		if p.Background != "" {
			cell.SetStyle("background-color", p.Background)
		}
	}
}

// TableProperties is the state of the table panel. A lock is only kept
// for a pixel dimension.
type TableProperties struct {
	Width       string `json:"width"`
	Height      string `json:"height"`
	LockWidth   bool   `json:"lockWidth"`
	LockHeight  bool   `json:"lockHeight"`
	Alignment   string `json:"alignment"`
	BorderWidth int    `json:"borderWidth"`
	BorderStyle string `json:"borderStyle"`
	BorderColor string `json:"borderColor"`
	CellPadding int    `json:"cellPadding"`
	CellSpacing int    `json:"cellSpacing"`
	Background  string `json:"backgroundColor"`
}

func ReadTableProperties(table *dom.Node) TableProperties {
	width := or(table.Style.Get("width"), "auto")
	height := or(table.Style.Get("height"), "auto")
	lockW, lockH := grid.Locks(table)
	_, wpx := grid.PixelValue(width)
	_, hpx := grid.PixelValue(height)
	bw, bs, bc := borderOf(table)
	if bc == "" {
		bc = defaultBorderColor
	}
	p := TableProperties{
		Width:       width,
		Height:      height,
		LockWidth:   lockW && wpx,
		LockHeight:  lockH && hpx,
		Alignment:   alignment(table),
		BorderWidth: bw,
		BorderStyle: bs,
		BorderColor: bc,
		CellPadding: 8,
		Background:  table.Style.Get("background-color"),
	}
	if cells := grid.Build(table).Cells; len(cells) > 0 {
		p.CellPadding = pixels(cells[0].Style.Get("padding"), 8)
	}
	if table.Style.Get("border-collapse") == "separate" {
		p.CellSpacing = pixels(table.Style.Get("border-spacing"), 0)
	}
	return p
}

func ApplyTableProperties(table *dom.Node, p TableProperties) {
	if p.Width == "" || p.Width == "auto" {
		table.SetStyle("width", "auto")
	} else {
		table.SetStyle("width", length(p.Width))
	}
	if p.Height == "" || p.Height == "auto" {
		table.Style.Delete("height")
	} else {
		table.SetStyle("height", length(p.Height))
	}
	_, wpx := grid.PixelValue(table.Style.Get("width"))
	_, hpx := grid.PixelValue(table.Style.Get("height"))
	grid.SetLocks(table, p.LockWidth && wpx, p.LockHeight && hpx)

	setAlignment(table, p.Alignment, "0")

	border := fmt.Sprintf("%dpx %s %s", max(p.BorderWidth, 0), or(p.BorderStyle, "solid"), or(p.BorderColor, defaultBorderColor))
	table.SetStyle("border", border)
	for _, cell := range grid.Build(table).Cells {
		if p.BorderWidth <= 0 {
			cell.SetStyle("border", "none")
		} else {
			cell.SetStyle("border", border)
		}
		cell.SetStyle("padding", fmt.Sprintf("%dpx", max(p.CellPadding, 0)))
	}

	if p.CellSpacing <= 0 {
		table.SetStyle("border-collapse", "collapse")
		table.Style.Delete("border-spacing")
	} else {
		table.SetStyle("border-collapse", "separate")
		table.SetStyle("border-spacing", fmt.Sprintf("%dpx", p.CellSpacing))
	}

	if p.Background != "" {
		table.SetStyle("background-color", p.Background)
	} else {
		table.Style.Delete("background-color")
	}
}

// ButtonProperties is the state of the button panel.
type ButtonProperties struct {
	Width        string `json:"width"`
	Height       string `json:"height"`
	Background   string `json:"backgroundColor"`
	Outline      bool   `json:"outlineEnabled"`
	OutlineColor string `json:"outlineColor"`
	Align        string `json:"align"`
}

func ReadButtonProperties(button *dom.Node) ButtonProperties {
	bw, bs, bc := borderOf(button)
	border := button.Style.Get("border")
	return ButtonProperties{
		Width:        button.Style.Get("width"),
		Height:       button.Style.Get("height"),
		Background:   button.Style.Get("background-color"),
		Outline:      border != "" && border != "none" && bs != "none" && bw > 0,
		OutlineColor: or(bc, defaultOutlineColor),
		Align:        alignment(button),
	}
}

func ApplyButtonProperties(button *dom.Node, p ButtonProperties) {
	if p.Width != "" {
		button.SetStyle("width", length(p.Width))
	}
	if p.Height != "" {
		button.SetStyle("height", length(p.Height))
	}
	if p.Background != "" {
		button.SetStyle("background-color", p.Background)
	}
	if p.Outline {
		button.SetStyle("border", "1px solid "+or(p.OutlineColor, defaultOutlineColor))
	} else {
		button.SetStyle("border", "none")
	}
	button.SetStyle("display", "block")
	setAlignment(button, p.Align, "0px")
}

// alignment reads left, center or right from the horizontal margins.
func alignment(n *dom.Node) string {
	left, right := n.Style.Get("margin-left"), n.Style.Get("margin-right")
	switch {
	case left == "auto" && right == "auto":
		return "center"
	case left == "auto":
		return "right"
	}
	return "left"
}

func setAlignment(n *dom.Node, align, zero string) {
	switch align {
	case "center":
		n.SetStyle("margin-left", "auto")
		n.SetStyle("margin-right", "auto")
	case "right":
		n.SetStyle("margin-left", "auto")
		n.SetStyle("margin-right", zero)
	default:
		n.SetStyle("margin-left", zero)
		n.SetStyle("margin-right", "auto")
	}
}

// borderOf reads width, style and color from the longhand properties,
// falling back to the border shorthand.
func borderOf(n *dom.Node) (width int, style, color string) {
	width, style = 1, "solid"
	for _, f := range strings.Fields(n.Style.Get("border")) {
		if px, ok := grid.PixelValue(f); ok {
			width = px
			continue
		}
		switch f {
		case "none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset":
			style = f
		default:
			color = f
		}
	}
	if v := n.Style.Get("border-width"); v != "" {
		width = pixels(v, width)
	}
	if v := n.Style.Get("border-style"); v != "" {
		style = v
	}
	if v := n.Style.Get("border-color"); v != "" {
		color = v
	}
	if style == "none" {
		width = 0
	}
	return width, style, color
}

// length adds px to a bare number.
func length(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "px") || strings.HasSuffix(v, "%") {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v + "px"
	}
	return v
}

func pixels(v string, fallback int) int {
	if px, ok := grid.PixelValue(v); ok {
		return px
	}
	return fallback
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// CellProperties reads the panel for the cell containing t.
func (d *Document) CellProperties(t Target) (CellProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cell, err := d.cellAt(t)
	if err != nil {
		return CellProperties{}, err
	}
	return ReadCellProperties(cell), nil
}

// SetCellProperties applies p to every selected cell, or to the cell
// containing t when nothing is selected.
func (d *Document) SetCellProperties(t Target, p CellProperties) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := d.selectionCopy()
	if len(ids) == 0 {
		cell, err := d.cellAt(t)
		if err != nil {
			return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
		}
		ids = []string{cell.ID}
	}
	return d.commit(mutation.Func("cell-properties", func(root *dom.Node) error {
		for _, id := range ids {
			cell := dom.FindByID(root, id)
			if cell == nil {
				return fmt.Errorf("%w: %s", mutation.ErrNodeNotFound, id)
			}
			ApplyCellProperties(cell, p)
		}
		return nil
	}), mutation.OriginTreeView)
}

func (d *Document) RowProperties(t Target) (RowProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	row, err := d.enclosing(t, "tr")
	if err != nil {
		return RowProperties{}, err
	}
	return ReadRowProperties(row), nil
}

func (d *Document) SetRowProperties(t Target, p RowProperties) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	row, err := d.enclosing(t, "tr")
	if err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	return d.commit(mutation.OnNode("row-properties", row.ID, func(n *dom.Node) error {
		ApplyRowProperties(n, p)
		return nil
	}), mutation.OriginTreeView)
}

func (d *Document) TableProperties(t Target) (TableProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, err := d.enclosing(t, "table")
	if err != nil {
		return TableProperties{}, err
	}
	return ReadTableProperties(table), nil
}

func (d *Document) SetTableProperties(t Target, p TableProperties) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, err := d.enclosing(t, "table")
	if err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	return d.commit(mutation.OnNode("table-properties", table.ID, func(n *dom.Node) error {
		ApplyTableProperties(n, p)
		return nil
	}), mutation.OriginTreeView)
}

func (d *Document) ButtonProperties(t Target) (ButtonProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	button, err := d.button(t)
	if err != nil {
		return ButtonProperties{}, err
	}
	return ReadButtonProperties(button), nil
}

func (d *Document) SetButtonProperties(t Target, p ButtonProperties) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	button, err := d.button(t)
	if err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	return d.commit(mutation.OnNode("button-properties", button.ID, func(n *dom.Node) error {
		ApplyButtonProperties(n, p)
		return nil
	}), mutation.OriginTreeView)
}

func (d *Document) enclosing(t Target, tag string) (*dom.Node, error) {
	n, err := resolve(d.pipeline.Snapshot().Tree, d.target(t))
	if err != nil {
		return nil, err
	}
	found := n.Closest(tag)
	if found == nil {
		return nil, grid.ErrNotInTable
	}
	return found, nil
}

func (d *Document) button(t Target) (*dom.Node, error) {
	n, err := resolve(d.pipeline.Snapshot().Tree, d.target(t))
	if err != nil {
		return nil, err
	}
	hit, kind := dom.Hit(n)
	if kind != dom.KindButton {
		return nil, ErrNotAButton
	}
	return hit, nil
}
