package dom

// AppendChild adds c as the last child of n, detaching it first.
func (n *Node) AppendChild(c *Node) {
	c.Detach()
	c.Parent = n
	n.Children = append(n.Children, c)
}

// InsertAt inserts c at index i among n's children. An out-of-range index
// appends.
func (n *Node) InsertAt(i int, c *Node) {
	c.Detach()
	if i < 0 || i >= len(n.Children) {
		n.AppendChild(c)
		return
	}
	c.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// InsertBefore inserts c before ref. A nil or foreign ref appends.
func (n *Node) InsertBefore(c, ref *Node) {
	if ref == nil || ref.Parent != n {
		n.AppendChild(c)
		return
	}
	if c == ref {
		return
	}
	c.Detach()
	n.InsertAt(ref.Index(), c)
}

// InsertAfter inserts c after ref. A nil or foreign ref appends.
func (n *Node) InsertAfter(c, ref *Node) {
	if ref == nil || ref.Parent != n {
		n.AppendChild(c)
		return
	}
	if c == ref {
		return
	}
	c.Detach()
	n.InsertAt(ref.Index()+1, c)
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := n.Index(); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

// ReplaceWith puts r where n was.
func (n *Node) ReplaceWith(r *Node) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	n.Detach()
	p.InsertAt(i, r)
}

// Unwrap replaces n with its children.
func (n *Node) Unwrap() {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	children := append([]*Node(nil), n.Children...)
	n.Detach()
	for j, c := range children {
		p.InsertAt(i+j, c)
	}
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
}

// InnerHTML renders n's children.
func (n *Node) InnerHTML() string {
	var r renderer
	for _, c := range n.Children {
		r.node(c)
	}
	return r.String()
}

// SetInnerHTML replaces n's children with parsed markup.
func (n *Node) SetInnerHTML(markup string) {
	n.RemoveChildren()
	frag := Parse(markup)
	for _, c := range append([]*Node(nil), frag.Children...) {
		n.AppendChild(c)
	}
}
