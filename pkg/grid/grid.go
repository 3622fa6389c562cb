// Package grid provides the piano-roll model: a fixed-size boolean matrix of
// pitch rows by time-slot columns.
package grid

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmpty          = errors.New("grid has no rows or columns")
	ErrNotRectangular = errors.New("grid rows have different lengths")
	ErrTooManyRows    = errors.New("grid has more rows than the pitch table")
)

// Grid is a rows × columns activation matrix. Row r sounds PitchForRow(r),
// column c is time slot c. Dimensions never change after construction.
type Grid struct {
	rows    int
	columns int
	cells   [][]bool
}

// New creates an empty grid
func New(rows, columns int) *Grid {
	if rows <= 0 || columns <= 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", rows, columns))
	}
	if rows > len(pitchTable) {
		panic(fmt.Sprintf("grid: %d rows exceeds pitch table size %d", rows, len(pitchTable)))
	}
	cells := make([][]bool, rows)
	for r := range cells {
		cells[r] = make([]bool, columns)
	}
	return &Grid{rows: rows, columns: columns, cells: cells}
}

// NewDefault creates an empty grid with the default piano-roll layout
func NewDefault() *Grid {
	return New(DefaultRows, DefaultColumns)
}

// FromBools builds a grid from a row-major matrix, validating its shape
func FromBools(cells [][]bool) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, ErrEmpty
	}
	if len(cells) > len(pitchTable) {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRows, len(cells), len(pitchTable))
	}
	columns := len(cells[0])
	g := New(len(cells), columns)
	for r, row := range cells {
		if len(row) != columns {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotRectangular, r, len(row), columns)
		}
		copy(g.cells[r], row)
	}
	return g, nil
}

// Rows returns the number of pitch rows
func (g *Grid) Rows() int { return g.rows }

// Columns returns the number of time slots
func (g *Grid) Columns() int { return g.columns }

// At reports whether a cell is on
func (g *Grid) At(row, col int) bool {
	g.check(row, col)
	return g.cells[row][col]
}

// Set switches a cell on or off
func (g *Grid) Set(row, col int, on bool) {
	g.check(row, col)
	g.cells[row][col] = on
}

// Toggle flips a cell and returns its new state
func (g *Grid) Toggle(row, col int) bool {
	g.check(row, col)
	g.cells[row][col] = !g.cells[row][col]
	return g.cells[row][col]
}

// Clear switches every cell off and returns the matrix as it was before.
func (g *Grid) Clear() [][]bool {
	before := g.Bools()
	for _, row := range g.cells {
		for c := range row {
			row[c] = false
		}
	}
	return before
}

// Bools returns a deep copy of the matrix
func (g *Grid) Bools() [][]bool {
	out := make([][]bool, g.rows)
	for r, row := range g.cells {
		out[r] = make([]bool, g.columns)
		copy(out[r], row)
	}
	return out
}

// Column returns the activation of every row at one time slot
func (g *Grid) Column(col int) []bool {
	g.check(0, col)
	out := make([]bool, g.rows)
	for r := range g.cells {
		out[r] = g.cells[r][col]
	}
	return out
}

// Transpose returns the matrix indexed by column first, so iteration walks
// time slots in order.
func (g *Grid) Transpose() [][]bool {
	out := make([][]bool, g.columns)
	for c := range out {
		out[c] = g.Column(c)
	}
	return out
}

// Active counts the cells that are on
func (g *Grid) Active() int {
	n := 0
	for _, row := range g.cells {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}

// Clone returns an independent copy
func (g *Grid) Clone() *Grid {
	return &Grid{rows: g.rows, columns: g.columns, cells: g.Bools()}
}

// MarshalJSON encodes the grid as a row-major [][]bool
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.cells)
}

// UnmarshalJSON decodes a row-major [][]bool, validating its shape
func (g *Grid) UnmarshalJSON(data []byte) error {
	var cells [][]bool
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	parsed, err := FromBools(cells)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

func (g *Grid) check(row, col int) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.columns {
		panic(fmt.Sprintf("grid: cell (%d,%d) outside %dx%d", row, col, g.rows, g.columns))
	}
}
