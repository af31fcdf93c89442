package dom

// Kind is the editing capability of a node, resolved once per interaction
// instead of probing whatever element sits under the pointer.
type Kind int

const (
	KindPlain Kind = iota
	KindCell
	KindRow
	KindTable
	KindButton
	KindLink
	KindImage
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindRow:
		return "row"
	case KindTable:
		return "table"
	case KindButton:
		return "button"
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	case KindList:
		return "list"
	default:
		return "plain"
	}
}

// Classify returns the capability of n itself.
func Classify(n *Node) Kind {
	if n == nil || n.Type != ElementNode {
		return KindPlain
	}
	switch n.Tag {
	case "td", "th":
		return KindCell
	case "tr":
		return KindRow
	case "table":
		return KindTable
	case "button":
		return KindButton
	case "a":
		if n.HasClass(ButtonClass) {
			return KindButton
		}
		return KindLink
	case "img":
		return KindImage
	case "ul", "ol":
		return KindList
	}
	return KindPlain
}

// Hit resolves the nearest ancestor-or-self of n with an editing
// capability. Buttons win over links and cells so a button inside a cell
// opens the button panel. Text and comments resolve through their parent.
func Hit(n *Node) (*Node, Kind) {
	var fallback *Node
	fallbackKind := KindPlain
	for cur := n; cur != nil; cur = cur.Parent {
		k := Classify(cur)
		switch k {
		case KindButton, KindImage:
			return cur, k
		case KindPlain:
			continue
		}
		if fallback == nil {
			fallback, fallbackKind = cur, k
		}
		if k == KindCell || k == KindTable {
			break
		}
	}
	if fallback != nil {
		return fallback, fallbackKind
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == ElementNode {
			return cur, KindPlain
		}
	}
	return nil, KindPlain
}

// ButtonClass marks anchors inserted as styled buttons.
const ButtonClass = "editor-button"
