package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

// Attrs is an insertion-ordered attribute map.
type Attrs struct {
	keys []string
	vals map[string]string
}

func NewAttrs() *Attrs {
	return &Attrs{vals: make(map[string]string)}
}

func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

func (a *Attrs) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.vals[key]
	return v, ok
}

func (a *Attrs) Set(key, value string) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = value
}

func (a *Attrs) Delete(key string) {
	if _, ok := a.vals[key]; !ok {
		return
	}
	delete(a.vals, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

func (a *Attrs) Clone() *Attrs {
	c := NewAttrs()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, a.vals[k])
	}
	return c
}

// Style is an insertion-ordered map of inline CSS declarations.
type Style struct {
	props []string
	vals  map[string]string
}

func NewStyle() *Style {
	return &Style{vals: make(map[string]string)}
}

// ParseStyle parses the value of a style attribute. Declarations are read
// with douceur; input it rejects is split leniently instead so a
// hand-edited attribute never loses its readable declarations.
func ParseStyle(text string) *Style {
	s := NewStyle()
	text = strings.TrimSpace(text)
	if text == "" {
		return s
	}
	// douceur only closes a declaration on ';' or '}'.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil || len(decls) == 0 {
		for _, chunk := range splitDeclarations(text) {
			prop, value, ok := strings.Cut(chunk, ":")
			if !ok {
				continue
			}
			s.Set(prop, value)
		}
		return s
	}
	for _, d := range decls {
		value := d.Value
		if d.Important {
			value += " !important"
		}
		s.Set(d.Property, value)
	}
	return s
}

// splitDeclarations splits on semicolons outside parentheses and quotes.
func splitDeclarations(text string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)
	for i, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			out = append(out, text[start:i])
			start = i + 1
		}
	}
	out = append(out, text[start:])
	return out
}

func normalizeProperty(prop string) string {
	prop = strings.TrimSpace(prop)
	if strings.HasPrefix(prop, "--") {
		return prop
	}
	return strings.ToLower(prop)
}

func (s *Style) Len() int {
	if s == nil {
		return 0
	}
	return len(s.props)
}

// Keys returns the property names in insertion order.
func (s *Style) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.props))
	copy(out, s.props)
	return out
}

func (s *Style) Get(prop string) string {
	if s == nil {
		return ""
	}
	return s.vals[normalizeProperty(prop)]
}

// Set writes a declaration. An empty value deletes it.
func (s *Style) Set(prop, value string) {
	prop = normalizeProperty(prop)
	value = strings.TrimSpace(value)
	if prop == "" {
		return
	}
	if value == "" {
		s.Delete(prop)
		return
	}
	if _, ok := s.vals[prop]; !ok {
		s.props = append(s.props, prop)
	}
	s.vals[prop] = value
}

func (s *Style) Delete(prop string) {
	prop = normalizeProperty(prop)
	if _, ok := s.vals[prop]; !ok {
		return
	}
	delete(s.vals, prop)
	for i, p := range s.props {
		if p == prop {
			s.props = append(s.props[:i], s.props[i+1:]...)
			break
		}
	}
}

func (s *Style) Clone() *Style {
	c := NewStyle()
	if s == nil {
		return c
	}
	for _, p := range s.props {
		c.Set(p, s.vals[p])
	}
	return c
}

// Equal compares declarations in order.
func (s *Style) Equal(o *Style) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, p := range s.Keys() {
		if o.props[i] != p || o.vals[p] != s.vals[p] {
			return false
		}
	}
	return true
}

// String renders the declarations as a style attribute value.
func (s *Style) String() string {
	if s.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.props))
	for _, p := range s.props {
		parts = append(parts, p+": "+s.vals[p])
	}
	return strings.Join(parts, "; ") + ";"
}
