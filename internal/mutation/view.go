package mutation

import (
	"sync"

	"htmleditor/internal/dom"
)

// TextView mirrors the source as the text editor sees it, applying the
// edits of each update.
type TextView struct {
	mu      sync.Mutex
	text    string
	version int64
	resets  int
}

func NewTextView(s Snapshot) *TextView {
	return &TextView{text: s.Source, version: s.Version}
}

func (v *TextView) Publish(u Update) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if u.Version <= v.version {
		return
	}
	text, err := ApplyEdits(v.text, u.Edits)
	if err != nil || text != u.Source || u.Version != v.version+1 {
		text = u.Source
		v.resets++
	}
	v.text, v.version = text, u.Version
}

func (v *TextView) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

// Version is the last version the view applied.
func (v *TextView) Version() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Resets counts updates that had to replace the whole text.
func (v *TextView) Resets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resets
}

// TreeView mirrors the structured view. It re-parses only when its tree no
// longer serializes to the published source.
type TreeView struct {
	mu       sync.Mutex
	tree     *dom.Node
	version  int64
	rebuilds int
}

func NewTreeView(s Snapshot) *TreeView {
	return &TreeView{tree: s.Tree.Clone(), version: s.Version}
}

func (v *TreeView) Publish(u Update) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if u.Version <= v.version {
		return
	}
	v.version = u.Version
	if v.tree != nil && dom.Render(v.tree) == u.Source {
		return
	}
	v.tree = dom.Parse(u.Source)
	v.rebuilds++
}

// Tree returns the view's live tree. A rebuild replaces the tree rather
// than mutating it, so a returned tree stays readable.
func (v *TreeView) Tree() (*dom.Node, int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree, v.version
}

func (v *TreeView) Rebuilds() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rebuilds
}
