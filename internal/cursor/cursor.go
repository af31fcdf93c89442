// Package cursor keeps the caret of the text view and the highlighted node
// of the tree view pointing at the same place in a document.
package cursor

import (
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"htmleditor/internal/dom"
)

var log = commonlog.GetLogger("htmleditor.cursor")

// Origin records which view produced a cursor.
type Origin string

const (
	OriginText Origin = "text-view"
	OriginTree Origin = "tree-view"
)

// Cursor is a caret position in the source. Offset is a byte index; Line
// is 1-based.
type Cursor struct {
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
	Origin Origin `json:"origin"`
}

// Highlight is what the opposite view should show for a cursor.
type Highlight struct {
	Path  dom.Path `json:"path"`
	Line  int      `json:"line"`
	Found bool     `json:"found"`
}

const markerText = "htmleditor-cursor-marker"

// OffsetToNode maps a source offset to the path of the element that
// contains it. A sentinel comment is spliced in at the offset and the
// result re-parsed; the marker's parent is the answer. A marker landing
// inside a tag or a void element can attach to a neighbouring element.
// At top level the nearest sibling element is used, the following one
// first.
func OffsetToNode(source string, offset int) (dom.Path, bool) {
	offset = Clamp(source, offset)
	tree := dom.Parse(source[:offset] + "<!--" + markerText + "-->" + source[offset:])

	var marker *dom.Node
	dom.Walk(tree, func(n *dom.Node) bool {
		if marker != nil {
			return false
		}
		if n.Type == dom.CommentNode && n.Data == markerText {
			marker = n
			return false
		}
		return true
	})
	if marker == nil || marker.Parent == nil {
		log.Debugf("cursor marker lost at offset %d", offset)
		return nil, false
	}
	target := marker.Parent
	if target.Type == dom.DocumentNode {
		target = nearestElement(marker)
		if target == nil {
			return nil, false
		}
	}
	// Drop the marker so sibling indices match the unmarked parse.
	marker.Detach()
	dom.Normalize(tree)
	return dom.PathOf(target), true
}

func nearestElement(n *dom.Node) *dom.Node {
	siblings := n.Parent.Children
	at := n.Index()
	for i := at + 1; i < len(siblings); i++ {
		if siblings[i].Type == dom.ElementNode {
			return siblings[i]
		}
	}
	for i := at - 1; i >= 0; i-- {
		if siblings[i].Type == dom.ElementNode {
			return siblings[i]
		}
	}
	return nil
}

// ResolvePath finds the node at path in the live tree. It returns nil when
// the tree has diverged from the source the path was computed on.
func ResolvePath(tree *dom.Node, path dom.Path) *dom.Node {
	return dom.Resolve(tree, path)
}

// LineOfOffset is 1 plus the number of newlines before offset.
func LineOfOffset(source string, offset int) int {
	offset = Clamp(source, offset)
	return 1 + strings.Count(source[:offset], "\n")
}

// OffsetOfNode locates a node's markup in source: the first literal
// occurrence of its serialization, then of its opening tag. Repeated
// markup always resolves to the first occurrence.
func OffsetOfNode(source string, n *dom.Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	if markup := dom.RenderNode(n); markup != "" {
		if i := strings.Index(source, markup); i >= 0 {
			return i, true
		}
	}
	if start := dom.RenderStartTag(n); start != "" {
		if i := strings.Index(source, start); i >= 0 {
			return i, true
		}
	}
	return 0, false
}

// LineOfNode reports the line on which n's markup starts.
func LineOfNode(source string, n *dom.Node) (int, bool) {
	i, ok := OffsetOfNode(source, n)
	if !ok {
		return 0, false
	}
	return LineOfOffset(source, i), true
}

// Clamp bounds offset to the source and moves it back onto a rune
// boundary.
func Clamp(source string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(source) {
		return len(source)
	}
	for offset > 0 && offset < len(source) && !utf8.RuneStart(source[offset]) {
		offset--
	}
	return offset
}

// FromText builds a cursor for a caret placed in the text view.
func FromText(source string, offset int) Cursor {
	offset = Clamp(source, offset)
	return Cursor{Offset: offset, Line: LineOfOffset(source, offset), Origin: OriginText}
}

// FromTree builds a cursor for a node selected in the tree view. The
// second result is false when the node's markup cannot be found.
func FromTree(source string, n *dom.Node) (Cursor, bool) {
	i, ok := OffsetOfNode(source, n)
	if !ok {
		log.Debugf("node %s not found in source", n.ID)
		return Cursor{Origin: OriginTree}, false
	}
	return Cursor{Offset: i, Line: LineOfOffset(source, i), Origin: OriginTree}, true
}

// ForOffset computes the tree-view highlight for a caret in the text view.
func ForOffset(source string, tree *dom.Node, offset int) Highlight {
	h := Highlight{Line: LineOfOffset(source, offset)}
	path, ok := OffsetToNode(source, offset)
	if !ok {
		return h
	}
	if ResolvePath(tree, path) == nil {
		log.Debugf("path %s diverged from live tree", path)
		return h
	}
	h.Path, h.Found = path, true
	return h
}

// ForNode computes the text-view highlight for a node picked in the tree
// view.
func ForNode(source string, n *dom.Node) Highlight {
	if n == nil {
		return Highlight{}
	}
	h := Highlight{Path: dom.PathOf(n)}
	line, ok := LineOfNode(source, n)
	if !ok {
		log.Debugf("no line for node %s", n.ID)
		return h
	}
	h.Line, h.Found = line, true
	return h
}
