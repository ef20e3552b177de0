// Package grid holds the selection-grid navigation shared by the character
// and map stages.
package grid

import (
	"errors"

	"github.com/DoyleJ11/couch-lobby/internal/input"
)

var ErrEmptyGrid = errors.New("grid has no items")
var ErrBadRowWidth = errors.New("grid row width must be positive")

// Layout is immutable for the lifetime of a stage.
type Layout struct {
	RowWidth  int
	ItemCount int
}

func NewLayout(rowWidth, itemCount int) (Layout, error) {
	l := Layout{RowWidth: rowWidth, ItemCount: itemCount}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (l Layout) Validate() error {
	if l.ItemCount <= 0 {
		return ErrEmptyGrid
	}
	if l.RowWidth <= 0 {
		return ErrBadRowWidth
	}
	return nil
}

// Rows is the number of rows needed to show every item.
func (l Layout) Rows() int {
	return (l.ItemCount + l.RowWidth - 1) / l.RowWidth
}

// Cell returns the row and column an index is drawn at.
func (l Layout) Cell(index int) (row, col int) {
	return index / l.RowWidth, index % l.RowWidth
}

func (l Layout) Contains(index int) bool {
	return index >= 0 && index < l.ItemCount
}

// Navigate moves one step from current. Horizontal moves wrap around the whole
// list; vertical moves jump a full row and wrap modulo the item count, so on a
// ragged last row a wrap can land in a different column. Horizontal input wins
// when both axes are set.
//
// The layout must be valid; callers build it through NewLayout.
func Navigate(current int, dir input.Direction, l Layout) int {
	n := l.ItemCount
	switch {
	case dir.X > 0:
		if current+1 > n-1 {
			return 0
		}
		return current + 1
	case dir.X < 0:
		if current-1 < 0 {
			return n - 1
		}
		return current - 1
	case dir.Y < 0:
		return mod(current-l.RowWidth, n)
	case dir.Y > 0:
		return mod(current+l.RowWidth, n)
	default:
		return current
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
