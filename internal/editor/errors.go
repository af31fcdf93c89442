package editor

import "errors"

var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNoResize         = errors.New("no resize in progress")
	ErrResizeActive     = errors.New("a resize is already in progress")
	ErrNotAButton       = errors.New("node is not a button")
	ErrUnknownInsertion = errors.New("unknown insertion kind")
	ErrMissingHref      = errors.New("link requires an href")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
)
