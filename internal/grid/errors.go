package grid

import "errors"

// Rejection is a user-facing refusal of a table operation. The table is
// left unchanged whenever one is returned.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	if r == nil {
		return ""
	}
	return r.Message
}

func reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

var (
	ErrTooFewCells        = reject("too_few_cells", "Select at least 2 cells to merge")
	ErrMixedTables        = reject("mixed_tables", "Selected cells belong to different tables")
	ErrNotMerged          = reject("not_merged", "This cell is not merged")
	ErrLastRow            = reject("last_row", "Cannot delete the last row")
	ErrLastColumn         = reject("last_column", "Cannot delete the last column")
	ErrNoAdjacentCell     = reject("no_adjacent_cell", "No adjacent cell in that direction")
	ErrSpanIsOne          = reject("span_is_one", "Cell does not span in that direction")
	ErrDeleteNotConfirmed = reject("delete_not_confirmed", "Deleting a table must be confirmed")
	ErrNotInTable         = reject("not_in_table", "Node is not inside a table")
	ErrBadDirection       = reject("bad_direction", "Unknown direction")
)

// ErrInvalidGrid reports a table whose cells do not tile a rectangle.
var ErrInvalidGrid = errors.New("invalid table grid")

// IsRejection reports whether err is a user-facing Rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
