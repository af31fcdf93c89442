package dom

import (
	"strings"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var rawTextElements = map[string]bool{
	"script": true, "style": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "plaintext": true, "noscript": true,
}

// IsVoid reports whether tag never has content or an end tag.
func IsVoid(tag string) bool { return voidElements[tag] }

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "\u00a0", "&nbsp;")
)

// Render serializes a tree. For a document root this is the markup of its
// children; for any other node it is the node's outer markup. Output is
// deterministic: attribute and style order are the insertion order.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	if n.Type == DocumentNode {
		return n.InnerHTML()
	}
	return RenderNode(n)
}

// RenderNode returns the outer markup of n.
func RenderNode(n *Node) string {
	var r renderer
	r.node(n)
	return r.String()
}

// RenderStartTag returns only the opening tag of an element.
func RenderStartTag(n *Node) string {
	if n.Type != ElementNode {
		return ""
	}
	var r renderer
	r.startTag(n)
	return r.String()
}

type renderer struct {
	strings.Builder
}

func (r *renderer) node(n *Node) {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			r.node(c)
		}
	case TextNode:
		if n.Parent != nil && rawTextElements[n.Parent.Tag] {
			r.WriteString(n.Data)
			return
		}
		r.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		r.WriteString("<!--")
		r.WriteString(n.Data)
		r.WriteString("-->")
	case ElementNode:
		r.startTag(n)
		if voidElements[n.Tag] {
			return
		}
		if n.Tag == "pre" || n.Tag == "textarea" || n.Tag == "listing" {
			// The parser drops one leading newline after these start tags.
			if len(n.Children) > 0 && n.Children[0].Type == TextNode && strings.HasPrefix(n.Children[0].Data, "\n") {
				r.WriteByte('\n')
			}
		}
		for _, c := range n.Children {
			r.node(c)
		}
		r.WriteString("</")
		r.WriteString(n.Tag)
		r.WriteByte('>')
	}
}

func (r *renderer) startTag(n *Node) {
	r.WriteByte('<')
	r.WriteString(n.Tag)
	wroteStyle := false
	for _, k := range n.Attrs.Keys() {
		if k == "style" {
			if n.Style.Len() == 0 {
				continue
			}
			wroteStyle = true
		}
		r.attr(k, n.Attr(k))
	}
	if !wroteStyle && n.Style.Len() > 0 {
		r.attr("style", n.Style.String())
	}
	r.WriteByte('>')
}

func (r *renderer) attr(key, val string) {
	r.WriteByte(' ')
	r.WriteString(key)
	r.WriteString(`="`)
	r.WriteString(attrEscaper.Replace(val))
	r.WriteByte('"')
}

// Pretty renders the tree with one node per line and two-space indentation.
// Text is whitespace-collapsed and trimmed; whitespace-only text is dropped.
func Pretty(n *Node) string {
	var r renderer
	if n.Type == DocumentNode {
		for _, c := range n.Children {
			r.pretty(c, 0)
		}
	} else {
		r.pretty(n, 0)
	}
	return strings.TrimSpace(r.String())
}

func (r *renderer) pretty(n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n.Type {
	case TextNode:
		text := strings.Join(strings.FieldsFunc(n.Data, isCollapsibleSpace), " ")
		if text == "" {
			return
		}
		r.WriteString(indent)
		if n.Parent != nil && rawTextElements[n.Parent.Tag] {
			r.WriteString(text)
		} else {
			r.WriteString(textEscaper.Replace(text))
		}
		r.WriteByte('\n')
	case CommentNode:
		r.WriteString(indent)
		r.node(n)
		r.WriteByte('\n')
	case ElementNode:
		r.WriteString(indent)
		r.startTag(n)
		if voidElements[n.Tag] {
			r.WriteByte('\n')
			return
		}
		var inner renderer
		for _, c := range n.Children {
			inner.pretty(c, depth+1)
		}
		if strings.TrimSpace(inner.String()) == "" {
			r.WriteString("</" + n.Tag + ">\n")
			return
		}
		r.WriteByte('\n')
		r.WriteString(inner.String())
		r.WriteString(indent + "</" + n.Tag + ">\n")
	}
}

// isCollapsibleSpace matches ASCII whitespace only; non-breaking spaces are
// content.
func isCollapsibleSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
