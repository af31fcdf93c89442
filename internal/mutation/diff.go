package mutation

import (
	"errors"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// TextEdit replaces Delete bytes at Offset with Insert. Offsets refer to
// the text with all earlier edits of the same update already applied.
type TextEdit struct {
	Offset int    `json:"offset"`
	Delete int    `json:"delete,omitempty"`
	Insert string `json:"insert,omitempty"`
}

var ErrEditOutOfRange = errors.New("text edit out of range")

var dmp = diffmatchpatch.New()

// Diff computes the edits turning before into after.
func Diff(before, after string) []TextEdit {
	if before == after {
		return nil
	}
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	var edits []TextEdit
	pos := 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			edits = append(edits, TextEdit{Offset: pos, Delete: len(d.Text)})
		case diffmatchpatch.DiffInsert:
			if n := len(edits); n > 0 && edits[n-1].Offset == pos && edits[n-1].Insert == "" {
				edits[n-1].Insert = d.Text
			} else {
				edits = append(edits, TextEdit{Offset: pos, Insert: d.Text})
			}
			pos += len(d.Text)
		}
	}
	return edits
}

// ApplyEdits replays edits produced by Diff.
func ApplyEdits(text string, edits []TextEdit) (string, error) {
	for _, e := range edits {
		if e.Offset < 0 || e.Delete < 0 || e.Offset+e.Delete > len(text) {
			return "", ErrEditOutOfRange
		}
		text = text[:e.Offset] + e.Insert + text[e.Offset+e.Delete:]
	}
	return text, nil
}
