// Package mutation commits changes to a document: commands run against a
// clone of an immutable snapshot, the result is canonicalized and
// serialized, and every registered view is told about the new source.
package mutation

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"htmleditor/internal/dom"
)

var log = commonlog.GetLogger("htmleditor.mutation")

// Origin records which side of the editor produced a change.
type Origin string

const (
	OriginTextView Origin = "text-view"
	OriginTreeView Origin = "tree-view"
	OriginHistory  Origin = "history"
	OriginSystem   Origin = "system"
)

// Snapshot is one committed state. Snapshots are never modified after they
// are published; Source is always the serialization of Tree.
type Snapshot struct {
	Tree    *dom.Node
	Source  string
	Version int64
}

// Update is what views receive after a commit.
type Update struct {
	Version int64      `json:"version"`
	Source  string     `json:"source"`
	Origin  Origin     `json:"origin"`
	Edits   []TextEdit `json:"edits,omitempty"`
}

// View is a consumer of committed sources.
type View interface {
	Publish(Update)
}

// Result describes a commit.
type Result struct {
	Snapshot Snapshot
	Previous string
	Changed  bool
}

// Pipeline owns the current snapshot of one document. Commits are
// serialized; Snapshot may be read concurrently.
type Pipeline struct {
	mu       sync.RWMutex
	current  Snapshot
	overlays []Overlay
	views    map[int]View
	nextView int
}

// NewPipeline parses the initial source into the first snapshot.
func NewPipeline(source string) *Pipeline {
	tree := dom.Parse(source)
	Canonicalize(tree)
	tree, text := serialize(tree)
	return &Pipeline{
		current:  Snapshot{Tree: tree, Source: text, Version: 1},
		overlays: Decorate(tree),
		views:    make(map[int]View),
	}
}

// Snapshot returns the current snapshot.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Overlays returns the decorations of the current snapshot.
func (p *Pipeline) Overlays() []Overlay {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Overlay(nil), p.overlays...)
}

// Register adds a view and returns a function removing it.
func (p *Pipeline) Register(v View) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextView
	p.nextView++
	p.views[id] = v
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.views, id)
	}
}

// Commit applies cmd to a clone of the current tree. On error the current
// snapshot is untouched. A change that leaves the source identical is not
// published.
func (p *Pipeline) Commit(cmd Command, origin Origin) (Result, error) {
	p.mu.Lock()
	prev := p.current
	tree := prev.Tree.Clone()
	if err := cmd.Apply(tree); err != nil {
		p.mu.Unlock()
		return Result{Snapshot: prev, Previous: prev.Source}, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	Canonicalize(tree)
	tree, source := serialize(tree)
	if source == prev.Source {
		p.mu.Unlock()
		return Result{Snapshot: prev, Previous: prev.Source}, nil
	}

	next := Snapshot{Tree: tree, Source: source, Version: prev.Version + 1}
	p.current = next
	p.overlays = Decorate(tree)
	views := make([]View, 0, len(p.views))
	for _, v := range p.views {
		views = append(views, v)
	}
	p.mu.Unlock()

	update := Update{
		Version: next.Version,
		Source:  next.Source,
		Origin:  origin,
		Edits:   Diff(prev.Source, next.Source),
	}
	for _, v := range views {
		v.Publish(update)
	}
	log.Debugf("commit %s v%d from %s (%d edits)", cmd.Name(), next.Version, origin, len(update.Edits))
	return Result{Snapshot: next, Previous: prev.Source, Changed: true}, nil
}

// serialize renders tree and, when the markup would not parse back to the
// same structure, adopts the re-parsed tree so the two always agree.
func serialize(tree *dom.Node) (*dom.Node, string) {
	source := dom.Render(tree)
	reparsed := dom.Parse(source)
	if dom.Equal(reparsed, tree) {
		return tree, source
	}
	log.Debugf("tree does not round trip; adopting re-parsed tree")
	return reparsed, dom.Render(reparsed)
}
