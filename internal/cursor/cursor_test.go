package cursor

import (
	"strings"
	"testing"

	"htmleditor/internal/dom"
)

func TestOffsetToNodeHelloWorld(t *testing.T) {
	source := "<p>Hello</p><p>World</p>"
	offset := strings.Index(source, "World") + 2

	path, ok := OffsetToNode(source, offset)
	if !ok {
		t.Fatal("expected a node")
	}
	tree := dom.Parse(source)
	n := ResolvePath(tree, path)
	if n == nil || !n.IsElement("p") || n.TextContent() != "World" {
		t.Fatalf("resolved %v to the wrong node", path)
	}

	line, ok := LineOfNode(source, n)
	if !ok || line != 1 {
		t.Fatalf("LineOfNode = %d, %v", line, ok)
	}
}

func TestOffsetToNodeNested(t *testing.T) {
	source := "<div>\n  <ul>\n    <li>one</li>\n    <li>two</li>\n  </ul>\n</div>"
	offset := strings.Index(source, "two")
	path, ok := OffsetToNode(source, offset)
	if !ok {
		t.Fatal("expected a node")
	}
	tree := dom.Parse(source)
	n := ResolvePath(tree, path)
	if n == nil || n.TextContent() != "two" {
		t.Fatalf("path %v resolved to %v", path, n)
	}
	line, ok := LineOfNode(source, n)
	if !ok || line != 4 {
		t.Fatalf("LineOfNode = %d, %v", line, ok)
	}
}

func TestOffsetToNodeTopLevel(t *testing.T) {
	source := "text <p>a</p>"
	path, ok := OffsetToNode(source, 1)
	if !ok || path.String() != "1" {
		t.Fatalf("path = %v, %v", path, ok)
	}
	if _, ok := OffsetToNode("only text", 3); ok {
		t.Fatal("plain text has no element to highlight")
	}
}

func TestOffsetIsClamped(t *testing.T) {
	source := "<p>é</p>"
	if got := Clamp(source, 100); got != len(source) {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(source, -4); got != 0 {
		t.Fatalf("Clamp low = %d", got)
	}
	// Second byte of the two-byte rune snaps back to its start.
	if got := Clamp(source, 4); got != 3 {
		t.Fatalf("Clamp mid-rune = %d", got)
	}
	if _, ok := OffsetToNode(source, 4); !ok {
		t.Fatal("mid-rune offset should still map")
	}
}

func TestLineOfOffset(t *testing.T) {
	source := "a\nb\nc"
	cases := []struct {
		offset int
		want   int
	}{
		{0, 1}, {1, 1}, {2, 2}, {4, 3}, {99, 3},
	}
	for _, tc := range cases {
		if got := LineOfOffset(source, tc.offset); got != tc.want {
			t.Errorf("LineOfOffset(%d) = %d, want %d", tc.offset, got, tc.want)
		}
	}
}

func TestLineOfNodeFirstOccurrence(t *testing.T) {
	source := "<p>x</p>\n<p>x</p>"
	tree := dom.Parse(source)
	second := tree.Children[2]
	line, ok := LineOfNode(source, second)
	if !ok || line != 1 {
		t.Fatalf("duplicate markup should resolve to the first line, got %d", line)
	}
}

func TestLineOfNodeFallsBackToStartTag(t *testing.T) {
	source := "<div id=\"a\">\n<span>x</span></div>"
	tree := dom.Parse(source)
	div := tree.Children[0]
	div.AppendChild(dom.NewText("changed"))
	line, ok := LineOfNode(source, div)
	if !ok || line != 1 {
		t.Fatalf("LineOfNode = %d, %v", line, ok)
	}
	detached := dom.NewElement("section")
	if _, ok := LineOfNode(source, detached); ok {
		t.Fatal("unknown node should not be found")
	}
}

func TestHighlights(t *testing.T) {
	source := "<p>Hello</p>\n<p>World</p>"
	tree := dom.Parse(source)

	h := ForOffset(source, tree, strings.Index(source, "World"))
	if !h.Found || h.Line != 2 || dom.Resolve(tree, h.Path).TextContent() != "World" {
		t.Fatalf("ForOffset = %+v", h)
	}

	stale := dom.Parse("<p>x</p>")
	if h := ForOffset(source, stale, strings.Index(source, "World")); h.Found {
		t.Fatal("diverged tree should not highlight")
	}

	h = ForNode(source, tree.Children[2])
	if !h.Found || h.Line != 2 || h.Path.String() != "2" {
		t.Fatalf("ForNode = %+v", h)
	}

	c, ok := FromTree(source, tree.Children[2])
	if !ok || c.Offset != strings.Index(source, "<p>World") || c.Origin != OriginTree {
		t.Fatalf("FromTree = %+v", c)
	}
	if c := FromText(source, 14); c.Line != 2 || c.Origin != OriginText {
		t.Fatalf("FromText = %+v", c)
	}
}
