package grid

import (
	"fmt"

	"htmleditor/internal/dom"
)

// TableSpec describes a table to insert. Zero values take the defaults.
type TableSpec struct {
	Rows       int  `json:"rows"`
	Cols       int  `json:"cols"`
	CellWidth  int  `json:"cellWidth"`
	CellHeight int  `json:"cellHeight"`
	Border     bool `json:"border"`
}

const DefaultBorder = "1px solid #d1d5db"

// DefaultTableSpec is a bordered 3x3 table.
func DefaultTableSpec() TableSpec {
	return TableSpec{Rows: 3, Cols: 3, CellWidth: 100, CellHeight: 30, Border: true}
}

// Normalize applies defaults and clamps every dimension to its range.
func (s TableSpec) Normalize() TableSpec {
	d := DefaultTableSpec()
	s.Rows = clamp(orDefault(s.Rows, d.Rows), 1, 50)
	s.Cols = clamp(orDefault(s.Cols, d.Cols), 1, 50)
	s.CellWidth = clamp(orDefault(s.CellWidth, d.CellWidth), 20, 1000)
	s.CellHeight = clamp(orDefault(s.CellHeight, d.CellHeight), 20, 500)
	return s
}

// NewTable builds a detached table of placeholder cells.
func NewTable(spec TableSpec) *dom.Node {
	spec = spec.Normalize()
	border := "none"
	if spec.Border {
		border = DefaultBorder
	}

	table := dom.NewElement("table")
	table.SetStyle("border-collapse", "collapse")
	table.SetStyle("width", "auto")
	body := dom.NewElement("tbody")
	table.AppendChild(body)
	for r := 0; r < spec.Rows; r++ {
		tr := dom.NewElement("tr")
		for c := 0; c < spec.Cols; c++ {
			td := dom.NewElement("td")
			td.SetStyle("border", border)
			td.SetStyle("padding", "8px")
			td.SetStyle("min-width", fmt.Sprintf("%dpx", spec.CellWidth))
			td.SetStyle("height", fmt.Sprintf("%dpx", spec.CellHeight))
			td.SetStyle("vertical-align", "top")
			td.AppendChild(dom.NewText(nbsp))
			tr.AppendChild(td)
		}
		body.AppendChild(tr)
	}
	return table
}

func orDefault(v, d int) int {
	if v == 0 {
		return d
	}
	return v
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
