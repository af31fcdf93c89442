// Package editor holds one editable document: its committed snapshot,
// undo history, cursor and cell selection, and the table, property and
// insertion commands that run against it.
package editor

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"htmleditor/internal/clean"
	"htmleditor/internal/cursor"
	"htmleditor/internal/dom"
	"htmleditor/internal/grid"
	"htmleditor/internal/history"
	"htmleditor/internal/mutation"
)

var log = commonlog.GetLogger("htmleditor.editor")

// Target names a node either by its ID or by its path in the current tree.
// The ID wins when both are set.
type Target struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
}

// Status summarizes a document for clients.
type Status struct {
	Version   int64              `json:"version"`
	Source    string             `json:"source"`
	CanUndo   bool               `json:"canUndo"`
	CanRedo   bool               `json:"canRedo"`
	Selection Selection          `json:"selection"`
	Cursor    cursor.Cursor      `json:"cursor"`
	Overlays  []mutation.Overlay `json:"overlays"`
}

// Document is a single editing session. Every mutation goes through the
// pipeline while holding mu, so there is exactly one writer.
type Document struct {
	mu        sync.Mutex
	pipeline  *mutation.Pipeline
	history   *history.Manager
	tree      *mutation.TreeView
	selection Selection
	cursor    cursor.Cursor
	drag      *grid.Drag
}

// New opens a document on source.
func New(source string, historyLimit int) *Document {
	p := mutation.NewPipeline(source)
	tree := mutation.NewTreeView(p.Snapshot())
	p.Register(tree)
	return &Document{
		pipeline: p,
		history:  history.New(historyLimit),
		tree:     tree,
		cursor:   cursor.Cursor{Line: 1, Origin: cursor.OriginText},
	}
}

// Restore reopens a document from a stored source and history.
func Restore(source string, state history.State, historyLimit int) *Document {
	d := New(source, historyLimit)
	d.history.Restore(state)
	return d
}

// Register attaches a view to the document's pipeline.
func (d *Document) Register(v mutation.View) func() {
	return d.pipeline.Register(v)
}

func (d *Document) Source() string {
	return d.pipeline.Snapshot().Source
}

func (d *Document) Snapshot() mutation.Snapshot {
	return d.pipeline.Snapshot()
}

// History exports the undo and redo stacks.
func (d *Document) History() history.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Export()
}

func (d *Document) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.pipeline.Snapshot()
	return Status{
		Version:   snap.Version,
		Source:    snap.Source,
		CanUndo:   d.history.CanUndo(),
		CanRedo:   d.history.CanRedo(),
		Selection: d.selectionView(),
		Cursor:    d.cursor,
		Overlays:  d.pipeline.Overlays(),
	}
}

// commit runs cmd and records the change in history unless it came from
// history itself. Callers hold mu.
func (d *Document) commit(cmd mutation.Command, origin mutation.Origin) (mutation.Result, error) {
	res, err := d.pipeline.Commit(cmd, origin)
	if err != nil {
		return res, err
	}
	if !res.Changed {
		return res, nil
	}
	if origin != mutation.OriginHistory {
		d.history.Record(res.Previous, res.Snapshot.Source)
	}
	d.pruneSelection(res.Snapshot.Tree)
	if d.drag != nil && dom.FindByID(res.Snapshot.Tree, d.drag.CellID) == nil {
		d.drag = nil
	}
	return res, nil
}

// EditText replaces the document with text typed in the text view.
func (d *Document) EditText(source string) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commit(mutation.ReplaceSource(source), mutation.OriginTextView)
}

func (d *Document) Undo() (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.history.Undo(d.pipeline.Snapshot().Source)
	if !ok {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, ErrNothingToUndo
	}
	return d.commit(mutation.ReplaceSource(prev), mutation.OriginHistory)
}

func (d *Document) Redo() (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, ok := d.history.Redo(d.pipeline.Snapshot().Source)
	if !ok {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, ErrNothingToRedo
	}
	return d.commit(mutation.ReplaceSource(next), mutation.OriginHistory)
}

// Clear empties the document. The cleared content stays reachable through
// undo.
func (d *Document) Clear() (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = Selection{}
	return d.commit(mutation.ReplaceSource(""), mutation.OriginSystem)
}

// Clean runs the cleaning passes over the current source.
func (d *Document) Clean(opts clean.Options) (mutation.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cleaned := clean.Clean(d.pipeline.Snapshot().Source, opts)
	return d.commit(mutation.ReplaceSource(cleaned), mutation.OriginSystem)
}

// TextCursor records a caret from the text view and returns the node the
// tree view should highlight.
func (d *Document) TextCursor(offset int) cursor.Highlight {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.pipeline.Snapshot()
	d.cursor = cursor.FromText(snap.Source, offset)
	return cursor.ForOffset(snap.Source, snap.Tree, d.cursor.Offset)
}

// TreeCursor records a node picked in the tree view and returns the line
// the text view should highlight.
func (d *Document) TreeCursor(t Target) (cursor.Highlight, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.pipeline.Snapshot()
	n, err := resolve(snap.Tree, t)
	if err != nil {
		return cursor.Highlight{}, err
	}
	if c, ok := cursor.FromTree(snap.Source, n); ok {
		d.cursor = c
	}
	return cursor.ForNode(snap.Source, n), nil
}

func (d *Document) Cursor() cursor.Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// resolve finds the node named by t in tree.
func resolve(tree *dom.Node, t Target) (*dom.Node, error) {
	if t.ID != "" {
		if n := dom.FindByID(tree, t.ID); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, t.ID)
	}
	p, ok := dom.ParsePath(t.Path)
	if !ok {
		return nil, fmt.Errorf("%w: bad path %q", ErrNodeNotFound, t.Path)
	}
	n := dom.Resolve(tree, p)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, p)
	}
	return n, nil
}

// onNode resolves t in the current snapshot and commits fn against the
// same node in the clone. Callers hold mu.
func (d *Document) onNode(name string, t Target, fn func(n *dom.Node) error) (mutation.Result, error) {
	n, err := resolve(d.pipeline.Snapshot().Tree, d.target(t))
	if err != nil {
		return mutation.Result{Snapshot: d.pipeline.Snapshot()}, err
	}
	return d.commit(mutation.OnNode(name, n.ID, fn), mutation.OriginTreeView)
}
