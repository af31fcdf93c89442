package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a tree from markup. Malformed input is repaired by the HTML5
// tree construction rules; Parse never fails. A full document is reduced to
// the content of its body.
func Parse(text string) *Node {
	root := FromHTML(ParseHTML(text))
	Normalize(root)
	return root
}

// ParseHTML parses markup into an x/net/html tree hung under a detached
// body element, for passes that work on the parser's own node type.
func ParseHTML(text string) *html.Node {
	body := bodyContext()
	if isDocument(text) {
		doc, err := html.Parse(strings.NewReader(text))
		if err != nil {
			log.Debugf("parse document: %v", err)
			return body
		}
		if src := findBody(doc); src != nil {
			for c := src.FirstChild; c != nil; {
				next := c.NextSibling
				src.RemoveChild(c)
				body.AppendChild(c)
				c = next
			}
		}
		return body
	}
	nodes, err := html.ParseFragment(strings.NewReader(text), bodyContext())
	if err != nil {
		log.Debugf("parse fragment: %v", err)
		return body
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body
}

func isDocument(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.Contains(head, "<html") || strings.Contains(head, "<body")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// FromHTML converts an x/net/html subtree. Document and body wrappers are
// flattened into a DocumentNode; doctypes are dropped.
func FromHTML(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.CommentNode:
		return NewComment(n.Data)
	case html.DocumentNode:
		root := NewDocument()
		appendConverted(root, n)
		return root
	case html.ElementNode:
		if n.Data == "body" && n.Parent == nil {
			root := NewDocument()
			appendConverted(root, n)
			return root
		}
		el := NewElement(n.Data)
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			el.SetAttr(key, a.Val)
		}
		appendConverted(el, n)
		return el
	default:
		return nil
	}
}

func appendConverted(dst *Node, src *html.Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if cc := FromHTML(c); cc != nil {
			dst.AppendChild(cc)
		}
	}
}

// Normalize merges adjacent text nodes and drops empty ones, which is what a
// serialize/parse round trip does.
func Normalize(n *Node) {
	if len(n.Children) == 0 {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Type == TextNode {
			if c.Data == "" {
				c.Parent = nil
				continue
			}
			if len(kept) > 0 && kept[len(kept)-1].Type == TextNode {
				kept[len(kept)-1].Data += c.Data
				c.Parent = nil
				continue
			}
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept
	for _, c := range n.Children {
		Normalize(c)
	}
}

// Equal reports whether two trees are structurally equal: same node types,
// tags, attributes, style declarations and text, after normalization.
// IDs are ignored.
func Equal(a, b *Node) bool {
	a, b = a.Clone(), b.Clone()
	Normalize(a)
	Normalize(b)
	return equalNodes(a, b)
}

func equalNodes(a, b *Node) bool {
	if a.Type != b.Type || a.Tag != b.Tag || a.Data != b.Data {
		return false
	}
	if a.Type == ElementNode {
		ak, bk := attrKeys(a), attrKeys(b)
		if len(ak) != len(bk) {
			return false
		}
		for i := range ak {
			if ak[i] != bk[i] || a.Attr(ak[i]) != b.Attr(bk[i]) {
				return false
			}
		}
		if !a.Style.Equal(b.Style) {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !equalNodes(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func attrKeys(n *Node) []string {
	var out []string
	for _, k := range n.Attrs.Keys() {
		if k != "style" {
			out = append(out, k)
		}
	}
	return out
}
