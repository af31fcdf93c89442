package dom

import (
	"strconv"
	"strings"
)

// Path locates a node by the child index taken at each level, starting
// from the root. The empty path is the root itself.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// ParsePath reads the form produced by Path.String.
func ParsePath(s string) (Path, bool) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return Path{}, true
	}
	fields := strings.Split(s, "/")
	p := make(Path, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return nil, false
		}
		p = append(p, v)
	}
	return p, true
}

// PathOf returns the path from n's root to n.
func PathOf(n *Node) Path {
	var rev []int
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		rev = append(rev, cur.Index())
	}
	p := make(Path, len(rev))
	for i, v := range rev {
		p[len(rev)-1-i] = v
	}
	return p
}

// Resolve walks root by path. It returns nil as soon as an index is out of
// range.
func Resolve(root *Node, p Path) *Node {
	cur := root
	for _, i := range p {
		if cur == nil || i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}
