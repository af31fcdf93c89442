// Package clean rewrites markup through a fixed sequence of optional
// sanitizing passes.
package clean

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/tliron/commonlog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"htmleditor/internal/dom"
)

var log = commonlog.GetLogger("htmleditor.clean")

var ErrUnknownOption = errors.New("unknown clean option")

var (
	nbspRun       = regexp.MustCompile(`\x{00a0}{2,}`)
	nbspEntityRun = regexp.MustCompile(`(?i)(&nbsp;|\x{00a0}){2,}`)
)

const nbsp = "\u00a0"

// Clean runs the enabled passes over a private parse of source and returns
// the new markup, or plain text when ClearAllTags is set. Passes run in
// this order: comments, images, links, tables, spans, styles, classes and
// ids, all attributes, empty and lone-nbsp elements, nbsp runs, then
// serialization, pretty-printing and entity encoding.
func Clean(source string, opts Options) string {
	body := dom.ParseHTML(source)

	if opts.ClearComments {
		for _, n := range htmlquery.Find(body, "//comment()") {
			remove(n)
		}
	}
	if opts.ClearImages {
		for _, n := range htmlquery.Find(body, "//img") {
			remove(n)
		}
	}
	if opts.ClearLinks {
		for _, n := range htmlquery.Find(body, "//a") {
			unwrap(n)
		}
	}
	if opts.ClearTables {
		for _, n := range htmlquery.Find(body, "//table") {
			remove(n)
		}
	} else if opts.ConvertTablesToDivs {
		tables := htmlquery.Find(body, "//table")
		// Innermost first so nested tables are converted before their
		// cells are moved.
		for i := len(tables) - 1; i >= 0; i-- {
			convertTable(tables[i])
		}
	}
	if opts.ClearSpanTags {
		for _, n := range htmlquery.Find(body, "//span") {
			unwrap(n)
		}
	}
	if opts.ClearInlineStyles {
		for _, n := range htmlquery.Find(body, "//*[@style]") {
			removeAttr(n, "style")
		}
	}
	if opts.ClearClassesAndIDs {
		for _, n := range htmlquery.Find(body, "//*[@class or @id]") {
			removeAttr(n, "class")
			removeAttr(n, "id")
		}
	}
	if opts.ClearTagAttributes {
		for _, n := range htmlquery.Find(body, "//*") {
			n.Attr = nil
		}
	}
	if opts.ClearTagsWithOneNbsp || opts.ClearEmptyTags {
		prune(body, opts)
	}
	if opts.ClearSuccessiveNbsp {
		for _, n := range htmlquery.Find(body, "//text()") {
			n.Data = nbspRun.ReplaceAllString(n.Data, nbsp)
		}
	}

	tree := dom.FromHTML(body)

	if opts.ClearAllTags {
		text := tree.TextContent()
		if opts.ClearSuccessiveNbsp {
			text = nbspRun.ReplaceAllString(text, nbsp)
		}
		text = strings.TrimSpace(strings.ReplaceAll(text, nbsp, " "))
		if opts.CharacterEncoding {
			text = encode(text)
		}
		return text
	}

	var out string
	if opts.OrganizeTreeView {
		out = dom.Pretty(tree)
	} else {
		out = dom.Render(tree)
	}
	if opts.ClearSuccessiveNbsp {
		out = nbspEntityRun.ReplaceAllString(out, "&nbsp;")
	}
	if opts.CharacterEncoding {
		out = encode(out)
	}
	log.Debugf("cleaned %d bytes into %d", len(source), len(out))
	return out
}

func remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func element(tag, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

// convertTable replaces a table with div.table > div.table-row >
// div.table-cell, moving each cell's content.
func convertTable(table *html.Node) {
	if table.Parent == nil {
		return
	}
	tableDiv := element("div", "table")
	for _, row := range htmlquery.Find(table, "//tr") {
		rowDiv := element("div", "table-row")
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			cellDiv := element("div", "table-cell")
			for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
				c.RemoveChild(gc)
				cellDiv.AppendChild(gc)
			}
			rowDiv.AppendChild(cellDiv)
		}
		tableDiv.AppendChild(rowDiv)
	}
	table.Parent.InsertBefore(tableDiv, table)
	table.Parent.RemoveChild(table)
}

// prune removes leaf elements that are empty or hold a single
// non-breaking space, children first so a parent emptied by the pass is
// pruned too. Void elements are never empty.
func prune(n *html.Node, opts Options) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			prune(c, opts)
			if prunable(c, opts) {
				n.RemoveChild(c)
			}
		}
		c = next
	}
}

func prunable(n *html.Node, opts Options) bool {
	if dom.IsVoid(n.Data) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return false
		}
	}
	text := htmlquery.InnerText(n)
	spaceless := strings.Map(dropASCIISpace, text)
	if opts.ClearTagsWithOneNbsp && spaceless == nbsp {
		return true
	}
	if opts.ClearEmptyTags && strings.ReplaceAll(spaceless, nbsp, "") == "" {
		return true
	}
	return false
}

func dropASCIISpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}

// encode writes characters from U+00A0 to U+9999 as decimal references.
func encode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0xA0 && r <= 0x9999 {
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(r)))
			sb.WriteByte(';')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
