package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is three cell indices that win when they hold the same mark.
type Line [3]int

// Lines is the fixed evaluation order: rows top to bottom, columns left to
// right, then the two diagonals.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// WinResult names the winning player and the line they completed.
type WinResult struct {
	Player Cell
	Line   Line
}

// Contains reports whether cell i is part of the winning line.
func (w WinResult) Contains(i int) bool {
	for _, c := range w.Line {
		if c == i {
			return true
		}
	}
	return false
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds    = errors.New("out of bounds")
	ErrOccupied       = errors.New("cell occupied")
	ErrGameOver       = errors.New("game over")
	ErrMoveOutOfRange = errors.New("move out of range")
)

// Evaluate returns the first completed line in Lines order, if any.
func Evaluate(b Board) (WinResult, bool) {
	for _, ln := range Lines {
		p := b[ln[0]]
		if p != Empty && b[ln[1]] == p && b[ln[2]] == p {
			return WinResult{Player: p, Line: ln}, true
		}
	}
	return WinResult{}, false
}

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Empty reports whether cell i is unoccupied. Out-of-range indices are never empty.
func (b Board) Empty(i int) bool {
	return i >= 0 && i < len(b) && b[i] == Empty
}

// IsDraw reports a full board without a winner.
func IsDraw(b Board) bool {
	if _, won := Evaluate(b); won {
		return false
	}
	return b.Full()
}

// Location is the 1-indexed column and row of a cell.
type Location struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// LocationOf converts a cell index to its 1-indexed column and row.
func LocationOf(cell int) Location {
	return Location{Col: cell%3 + 1, Row: cell/3 + 1}
}

// CellAt converts a 0-based row and column (0..2) to a cell index.
func CellAt(r, c int) (int, error) {
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return 0, ErrOutOfBounds
	}
	return r*3 + c, nil
}
