package app

import "github.com/jaminalder/tictactoe-timetravel/internal/domain"

// CellView is one square of the rendered board.
type CellView struct {
	Index    int    `json:"index"`
	Mark     string `json:"mark"`
	Playable bool   `json:"playable"`
	Win      bool   `json:"win"`
}

// MoveView is one entry of the move list.
type MoveView struct {
	Move        int              `json:"move"`
	Description string           `json:"description"`
	Current     bool             `json:"current"`
	Location    *domain.Location `json:"location,omitempty"`
}

// View is a presentation-agnostic snapshot of a game shared by the HTML,
// JSON and terminal front ends.
type View struct {
	ID          string     `json:"id"`
	Cells       []CellView `json:"cells"`
	Status      string     `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	WinningLine []int      `json:"winning_line,omitempty"`
	Draw        bool       `json:"draw"`
	Next        string     `json:"next,omitempty"`
	CurrentMove int        `json:"current_move"`
	Order       string     `json:"order"`
	Descending  bool       `json:"descending"`
	Moves       []MoveView `json:"moves"`
}

// Rows groups the cells three per row.
func (v View) Rows() [][]CellView {
	rows := make([][]CellView, 0, 3)
	for r := 0; r+3 <= len(v.Cells); r += 3 {
		rows = append(rows, v.Cells[r:r+3])
	}
	return rows
}

// Snapshot derives the view of the selected move. Nothing is cached: status,
// winning line and move list are recomputed on every call.
func Snapshot(gs GameState) View {
	h := gs.History
	b := h.Current()
	st := h.Status()
	v := View{
		ID:          gs.ID,
		Status:      st.String(),
		CurrentMove: h.CurrentMove(),
		Order:       gs.Order.String(),
		Descending:  gs.Order == domain.Descending,
	}
	win, won := domain.Evaluate(b)
	switch st.Kind {
	case domain.Won:
		v.Winner = st.Player.String()
		v.WinningLine = st.Line[:]
	case domain.Drawn:
		v.Draw = true
	default:
		v.Next = st.Player.String()
	}
	v.Cells = make([]CellView, len(b))
	for i, c := range b {
		v.Cells[i] = CellView{
			Index:    i,
			Mark:     c.String(),
			Playable: c == domain.Empty && !won,
			Win:      won && win.Contains(i),
		}
	}
	for _, m := range h.Moves(gs.Order) {
		v.Moves = append(v.Moves, MoveView{
			Move:        m.Move,
			Description: m.Description,
			Current:     m.Current,
			Location:    m.Location,
		})
	}
	return v
}
