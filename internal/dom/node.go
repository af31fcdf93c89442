// Package dom provides the structured representation of an editable HTML
// document: element, text and comment nodes with ordered attribute and
// inline-style maps, plus deterministic parsing and serialization.
package dom

import (
	"strconv"
	"strings"
	"sync/atomic"

	"htmleditor/internal/util"
)

// NodeType identifies the variant of a Node.
type NodeType int

const (
	// DocumentNode is the synthetic root that owns the top-level content.
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// Node is a single node of the document tree. Each node is owned by its
// parent; the root is owned by whoever holds the tree.
//
// ID is stable for the lifetime of the node (and its Clone) and is never
// serialized. UI overlays and selections key off it.
type Node struct {
	ID       string
	Type     NodeType
	Tag      string
	Attrs    *Attrs
	Style    *Style
	Data     string
	Children []*Node
	Parent   *Node
}

var (
	// idPrefix differs per process, so an id kept by a client across a
	// restart never names a node of the restored document.
	idPrefix  = util.ShortID("n") + "."
	idCounter atomic.Uint64
)

func nextID() string {
	return idPrefix + strconv.FormatUint(idCounter.Add(1), 36)
}

// NewDocument returns an empty root.
func NewDocument() *Node {
	return &Node{ID: nextID(), Type: DocumentNode}
}

// NewElement returns a detached element with the given tag.
func NewElement(tag string) *Node {
	return &Node{
		ID:    nextID(),
		Type:  ElementNode,
		Tag:   strings.ToLower(tag),
		Attrs: NewAttrs(),
		Style: NewStyle(),
	}
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{ID: nextID(), Type: TextNode, Data: data}
}

// NewComment returns a detached comment node.
func NewComment(data string) *Node {
	return &Node{ID: nextID(), Type: CommentNode, Data: data}
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it reports whether n is an element at all.
func (n *Node) IsElement(tags ...string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if n.Tag == tag {
			return true
		}
	}
	return false
}

// Attr returns the value of an attribute. The style attribute is rendered
// from the Style map.
func (n *Node) Attr(key string) string {
	if n.Type != ElementNode {
		return ""
	}
	key = strings.ToLower(key)
	if key == "style" {
		return n.Style.String()
	}
	v, _ := n.Attrs.Get(key)
	return v
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(key string) bool {
	if n.Type != ElementNode {
		return false
	}
	key = strings.ToLower(key)
	if key == "style" {
		return n.Style.Len() > 0
	}
	_, ok := n.Attrs.Get(key)
	return ok
}

// SetAttr sets an attribute, keeping the position of an existing key.
func (n *Node) SetAttr(key, value string) {
	if n.Type != ElementNode {
		return
	}
	key = strings.ToLower(key)
	if key == "style" {
		n.Style = ParseStyle(value)
		n.Attrs.Set("style", "")
		return
	}
	n.Attrs.Set(key, value)
}

// RemoveAttr deletes an attribute. Removing style clears the Style map.
func (n *Node) RemoveAttr(key string) {
	if n.Type != ElementNode {
		return
	}
	key = strings.ToLower(key)
	if key == "style" {
		n.Style = NewStyle()
	}
	n.Attrs.Delete(key)
}

// ClearAttrs removes every attribute, style included.
func (n *Node) ClearAttrs() {
	if n.Type != ElementNode {
		return
	}
	n.Attrs = NewAttrs()
	n.Style = NewStyle()
}

// SetStyle sets one inline style property.
func (n *Node) SetStyle(property, value string) {
	if n.Type != ElementNode {
		return
	}
	if value == "" {
		n.Style.Delete(property)
		return
	}
	n.Style.Set(property, value)
	if _, ok := n.Attrs.Get("style"); !ok {
		n.Attrs.Set("style", "")
	}
}

// CopyStyle replaces n's inline style with a copy of src's.
func (n *Node) CopyStyle(src *Node) {
	if n.Type != ElementNode || src == nil || src.Type != ElementNode {
		return
	}
	n.Style = src.Style.Clone()
	if n.Style.Len() > 0 {
		if _, ok := n.Attrs.Get("style"); !ok {
			n.Attrs.Set("style", "")
		}
	}
}

// IntAttr parses a positive integer attribute such as rowspan, returning
// fallback when absent or invalid.
func (n *Node) IntAttr(key string, fallback int) int {
	raw := strings.TrimSpace(n.Attr(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// HasClass reports whether the class attribute contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// RemoveClass drops one class token, deleting the attribute when it
// becomes empty.
func (n *Node) RemoveClass(name string) {
	if !n.HasAttr("class") {
		return
	}
	var kept []string
	for _, c := range strings.Fields(n.Attr("class")) {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		n.RemoveAttr("class")
		return
	}
	n.SetAttr("class", strings.Join(kept, " "))
}

// Clone deep-copies the subtree, preserving IDs. The copy is detached.
func (n *Node) Clone() *Node {
	return n.clone(false)
}

// CloneFresh deep-copies the subtree assigning new IDs.
func (n *Node) CloneFresh() *Node {
	return n.clone(true)
}

func (n *Node) clone(fresh bool) *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:   n.ID,
		Type: n.Type,
		Tag:  n.Tag,
		Data: n.Data,
	}
	if fresh {
		c.ID = nextID()
	}
	if n.Attrs != nil {
		c.Attrs = n.Attrs.Clone()
	}
	if n.Style != nil {
		c.Style = n.Style.Clone()
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, 0, len(n.Children))
		for _, child := range n.Children {
			cc := child.clone(fresh)
			cc.Parent = c
			c.Children = append(c.Children, cc)
		}
	}
	return c
}

// Root walks up to the topmost ancestor.
func (n *Node) Root() *Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Index returns n's position among its parent's children, or -1.
func (n *Node) Index() int {
	if n == nil || n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// ElementChildren returns the element children of n.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Closest returns n or its nearest ancestor that is an element with one of
// the given tags.
func (n *Node) Closest(tags ...string) *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.IsElement(tags...) {
			return cur
		}
	}
	return nil
}

// TextContent concatenates the text descendants of n. Comments are skipped.
func (n *Node) TextContent() string {
	var sb strings.Builder
	Walk(n, func(c *Node) bool {
		if c.Type == TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Walk visits n and its descendants in document order. Returning false
// from fn skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// FindAll returns the descendants of n (n excluded) matching pred in
// document order.
func FindAll(n *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range n.Children {
		Walk(c, func(d *Node) bool {
			if pred(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// FindByID looks up a node by ID in the subtree rooted at n.
func FindByID(n *Node, id string) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Contains reports whether d is n or one of its descendants.
func (n *Node) Contains(d *Node) bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}
