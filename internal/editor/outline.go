package editor

import (
	"strings"
	"unicode/utf8"

	"htmleditor/internal/dom"
)

const labelLimit = 40

// OutlineNode is one element as the tree view shows it. Path resolves
// against the committed tree, so it can be sent back as a Target.
type OutlineNode struct {
	Path     string        `json:"path"`
	Tag      string        `json:"tag"`
	Kind     string        `json:"kind"`
	Label    string        `json:"label,omitempty"`
	Children []OutlineNode `json:"children,omitempty"`
}

type Outline struct {
	Version  int64         `json:"version"`
	Rebuilds int           `json:"rebuilds"`
	Nodes    []OutlineNode `json:"nodes"`
}

// Outline lists the elements of the document's tree view.
func (d *Document) Outline() Outline {
	root, version := d.tree.Tree()
	return Outline{
		Version:  version,
		Rebuilds: d.tree.Rebuilds(),
		Nodes:    outlineChildren(root),
	}
}

func outlineChildren(n *dom.Node) []OutlineNode {
	var out []OutlineNode
	for _, c := range n.ElementChildren() {
		out = append(out, OutlineNode{
			Path:     dom.PathOf(c).String(),
			Tag:      c.Tag,
			Kind:     dom.Classify(c).String(),
			Label:    label(c),
			Children: outlineChildren(c),
		})
	}
	return out
}

// label is the element's own text, collapsed and cut short.
func label(n *dom.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Type == dom.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(text) <= labelLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:labelLimit]) + "…"
}
