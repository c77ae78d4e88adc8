package domain

import "fmt"

// History is a single linear timeline of board snapshots with a cursor.
// Playing after a jump discards every snapshot past the cursor.
type History struct {
	boards  []Board
	cells   []int // cells[n-1] is the cell changed by move n
	current int
}

// NewHistory returns a history holding only the empty board.
func NewHistory() *History {
	return &History{boards: []Board{{}}}
}

// PlayerFor returns whose mark is placed on the board at the given move index.
func PlayerFor(move int) Cell {
	if move%2 == 0 {
		return X
	}
	return O
}

// Next returns the player to move from the selected snapshot.
func (h *History) Next() Cell { return PlayerFor(h.current) }

// Current returns the selected snapshot.
func (h *History) Current() Board { return h.boards[h.current] }

// CurrentMove returns the selected move index.
func (h *History) CurrentMove() int { return h.current }

// Len returns the number of snapshots, including the empty start board.
func (h *History) Len() int { return len(h.boards) }

// Board returns snapshot n.
func (h *History) Board(n int) (Board, bool) {
	if n < 0 || n >= len(h.boards) {
		return Board{}, false
	}
	return h.boards[n], true
}

// CellOf returns the cell changed by move n (n >= 1).
func (h *History) CellOf(n int) (int, bool) {
	if n < 1 || n > len(h.cells) {
		return 0, false
	}
	return h.cells[n-1], true
}

// ApplyMove returns current with cell marked for the player whose turn it is
// at move. The gate is the displayed board: once it shows a win, nothing is
// accepted, even if the win was reached on a branch the user jumped back into.
func ApplyMove(cell int, current Board, move int) (Board, error) {
	if cell < 0 || cell >= len(current) {
		return current, ErrOutOfBounds
	}
	if current[cell] != Empty {
		return current, ErrOccupied
	}
	if _, won := Evaluate(current); won {
		return current, ErrGameOver
	}
	next := current
	next[cell] = PlayerFor(move)
	return next, nil
}

// Commit truncates the timeline after the cursor, appends next, and selects it.
func (h *History) Commit(next Board, cell int) {
	h.boards = append(h.boards[:h.current+1:h.current+1], next)
	h.cells = append(h.cells[:h.current:h.current], cell)
	h.current = len(h.boards) - 1
}

// Play applies a move for the current player on the selected snapshot and
// commits it. Rejected moves leave the history untouched.
func (h *History) Play(cell int) (Board, error) {
	next, err := ApplyMove(cell, h.Current(), h.current)
	if err != nil {
		return h.Current(), err
	}
	h.Commit(next, cell)
	return next, nil
}

// JumpTo selects snapshot move without altering the timeline.
func (h *History) JumpTo(move int) error {
	if move < 0 || move >= len(h.boards) {
		return ErrMoveOutOfRange
	}
	h.current = move
	return nil
}

// Clone returns an independent copy.
func (h *History) Clone() *History {
	return &History{
		boards:  append([]Board(nil), h.boards...),
		cells:   append([]int(nil), h.cells...),
		current: h.current,
	}
}

// StatusKind classifies the selected snapshot.
type StatusKind uint8

const (
	InProgress StatusKind = iota
	Won
	Drawn
)

// Status describes the selected snapshot. Line is only meaningful when Won.
type Status struct {
	Kind   StatusKind
	Player Cell
	Line   Line
}

func (s Status) String() string {
	switch s.Kind {
	case Won:
		return "Winner: " + s.Player.String()
	case Drawn:
		return "Draw"
	default:
		return "Next player: " + s.Player.String()
	}
}

// StatusOf derives the status of board b when move is the selected index.
// A win is checked before a draw.
func StatusOf(b Board, move int) Status {
	if w, ok := Evaluate(b); ok {
		return Status{Kind: Won, Player: w.Player, Line: w.Line}
	}
	if b.Full() {
		return Status{Kind: Drawn}
	}
	return Status{Kind: InProgress, Player: PlayerFor(move)}
}

// Status recomputes the status of the selected snapshot.
func (h *History) Status() Status { return StatusOf(h.Current(), h.current) }

// Order is the presentation order of the move list.
type Order uint8

const (
	Ascending Order = iota
	Descending
)

// Toggle flips the order.
func (o Order) Toggle() Order {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

func (o Order) String() string {
	if o == Descending {
		return "Desc"
	}
	return "Asc"
}

// MoveEntry is one line of the move list.
type MoveEntry struct {
	Move        int
	Description string
	Current     bool
	Location    *Location
}

// Moves lists every snapshot as a jump target in the given order.
func (h *History) Moves(order Order) []MoveEntry {
	out := make([]MoveEntry, len(h.boards))
	for n := range h.boards {
		e := MoveEntry{Move: n, Current: n == h.current}
		if cell, ok := h.CellOf(n); ok {
			loc := LocationOf(cell)
			e.Location = &loc
		}
		e.Description = describe(n, e.Current, e.Location)
		i := n
		if order == Descending {
			i = len(out) - 1 - n
		}
		out[i] = e
	}
	return out
}

func describe(n int, current bool, loc *Location) string {
	var s string
	switch {
	case current:
		s = fmt.Sprintf("You are at move #%d", n)
	case n == 0:
		return "Go to game start"
	default:
		s = fmt.Sprintf("Go to move #%d", n)
	}
	if loc != nil {
		s += fmt.Sprintf(" (col %d, row %d)", loc.Col, loc.Row)
	}
	return s
}
