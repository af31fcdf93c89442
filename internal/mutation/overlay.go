package mutation

import (
	"htmleditor/internal/dom"
)

// OverlayKind names a UI decoration.
type OverlayKind string

const (
	OverlayResizeHandle OverlayKind = "resize-handle"
	OverlayImageFit     OverlayKind = "image-fit"
)

// Overlay is a decoration the tree view draws over a node. Overlays live
// beside the tree, keyed by node ID, and are never serialized.
type Overlay struct {
	NodeID string      `json:"nodeId"`
	Kind   OverlayKind `json:"kind"`
}

// Decorate computes the overlays for a tree: a resize handle on every cell
// and a fit-to-cell rule on every image inside a cell.
func Decorate(root *dom.Node) []Overlay {
	var out []Overlay
	dom.Walk(root, func(n *dom.Node) bool {
		switch {
		case n.IsElement("td", "th"):
			out = append(out, Overlay{NodeID: n.ID, Kind: OverlayResizeHandle})
		case n.IsElement("img") && n.Closest("td", "th") != nil:
			out = append(out, Overlay{NodeID: n.ID, Kind: OverlayImageFit})
		}
		return true
	})
	return out
}

const (
	legacyHandleClass   = "resize-handle"
	legacySelectedClass = "table-cell-selected"
)

// Canonicalize strips decorations that older clients rendered into the
// document itself: resize handle elements and the cell selection class.
func Canonicalize(root *dom.Node) {
	for _, n := range dom.FindAll(root, func(n *dom.Node) bool {
		return n.IsElement() && n.HasClass(legacyHandleClass)
	}) {
		n.Detach()
	}
	dom.Walk(root, func(n *dom.Node) bool {
		if n.IsElement() && n.HasClass(legacySelectedClass) {
			n.RemoveClass(legacySelectedClass)
		}
		return true
	})
}
