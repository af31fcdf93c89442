package editor

import (
	"fmt"
	"strings"

	"htmleditor/internal/cursor"
	"htmleditor/internal/dom"
	"htmleditor/internal/grid"
	"htmleditor/internal/mutation"
)

// Insertion kinds.
const (
	InsertTable  = "table"
	InsertButton = "button"
	InsertLink   = "link"
	InsertList   = "list"
	InsertRule   = "hr"
)

// Insertion describes content to add. Fields not used by Kind are ignored.
type Insertion struct {
	Kind    string         `json:"kind"`
	Table   grid.TableSpec `json:"table"`
	Text    string         `json:"text,omitempty"`
	Href    string         `json:"href,omitempty"`
	Ordered bool           `json:"ordered,omitempty"`
	Items   []string       `json:"items,omitempty"`
}

// Placement says where an insertion goes: after a node, at a byte offset
// of the source, or at the end of the document when neither is set.
type Placement struct {
	After  *Target `json:"after,omitempty"`
	Offset *int    `json:"offset,omitempty"`
}

const buttonStyle = "display: inline-block; padding: 8px 16px; background-color: #2563eb; color: #ffffff; border-radius: 4px; text-decoration: none;"

// Build creates the detached node for an insertion.
func (ins Insertion) Build() (*dom.Node, error) {
	switch strings.ToLower(ins.Kind) {
	case InsertTable:
		return grid.NewTable(ins.Table), nil
	case InsertButton:
		a := dom.NewElement("a")
		a.SetAttr("class", dom.ButtonClass)
		a.SetAttr("href", or(ins.Href, "#"))
		a.SetAttr("style", buttonStyle)
		a.AppendChild(dom.NewText(or(ins.Text, "Button")))
		return a, nil
	case InsertLink:
		if strings.TrimSpace(ins.Href) == "" {
			return nil, ErrMissingHref
		}
		a := dom.NewElement("a")
		a.SetAttr("href", ins.Href)
		a.AppendChild(dom.NewText(or(ins.Text, ins.Href)))
		return a, nil
	case InsertList:
		tag := "ul"
		if ins.Ordered {
			tag = "ol"
		}
		list := dom.NewElement(tag)
		items := ins.Items
		if len(items) == 0 {
			items = []string{""}
		}
		for _, item := range items {
			li := dom.NewElement("li")
			if item != "" {
				li.AppendChild(dom.NewText(item))
			}
			list.AppendChild(li)
		}
		return list, nil
	case InsertRule:
		return dom.NewElement("hr"), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownInsertion, ins.Kind)
}

// Insert adds content at a placement. An offset splices the markup into
// the source text; a target inserts after that node in the tree.
func (d *Document) Insert(at Placement, ins Insertion) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node, err := ins.Build()
	if err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	name := "insert-" + strings.ToLower(ins.Kind)

	switch {
	case at.Offset != nil:
		source := d.pipeline.Snapshot().Source
		i := cursor.Clamp(source, *at.Offset)
		spliced := source[:i] + dom.RenderNode(node) + source[i:]
		return d.commit(mutation.ReplaceSource(spliced), mutation.OriginTextView)
	case at.After != nil:
		return d.onNode(name, *at.After, func(n *dom.Node) error {
			if n.Parent == nil {
				n.AppendChild(node)
				return nil
			}
			n.Parent.InsertAfter(node, n)
			return nil
		})
	}
	return d.commit(mutation.Func(name, func(root *dom.Node) error {
		root.AppendChild(node)
		return nil
	}), mutation.OriginTreeView)
}
