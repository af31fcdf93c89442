package mutation

import (
	"errors"
	"fmt"

	"htmleditor/internal/dom"
)

// ErrNodeNotFound is returned when a command targets a node ID that is not
// in the snapshot it is applied to.
var ErrNodeNotFound = errors.New("node not found")

// Command is one user-level change. Apply receives a private clone of the
// current tree; returning an error discards the clone.
type Command interface {
	Name() string
	Apply(root *dom.Node) error
}

type funcCommand struct {
	name string
	fn   func(root *dom.Node) error
}

func (c funcCommand) Name() string { return c.name }

func (c funcCommand) Apply(root *dom.Node) error { return c.fn(root) }

// Func wraps a function as a Command.
func Func(name string, fn func(root *dom.Node) error) Command {
	return funcCommand{name: name, fn: fn}
}

// OnNode builds a command that resolves id in the cloned tree and hands the
// node to fn.
func OnNode(name, id string, fn func(n *dom.Node) error) Command {
	return Func(name, func(root *dom.Node) error {
		n := dom.FindByID(root, id)
		if n == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		return fn(n)
	})
}

// ReplaceSource replaces the whole document with parsed text. Text-view
// edits and history restores go through it.
func ReplaceSource(source string) Command {
	return Func("replace-source", func(root *dom.Node) error {
		parsed := dom.Parse(source)
		root.RemoveChildren()
		for _, c := range append([]*dom.Node(nil), parsed.Children...) {
			root.AppendChild(c)
		}
		return nil
	})
}
