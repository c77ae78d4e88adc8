// Package term draws a game view for terminals.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/tictactoe-timetravel/internal/app"
)

// Renderer writes views to a terminal, coloring marks and the winning line
// when the output supports it.
type Renderer struct {
	out *termenv.Output
}

// NewRenderer detects the color profile of w.
func NewRenderer(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, opts...)}
}

func (r *Renderer) mark(c app.CellView) string {
	s := c.Mark
	if s == "" {
		// show the cell index so players know what to type
		return r.out.String(fmt.Sprint(c.Index)).Faint().String()
	}
	st := r.out.String(s).Bold()
	switch s {
	case "X":
		st = st.Foreground(r.out.Color("4"))
	case "O":
		st = st.Foreground(r.out.Color("1"))
	}
	if c.Win {
		st = st.Background(r.out.Color("3")).Reverse()
	}
	return st.String()
}

// Render writes the board, status line and move list.
func (r *Renderer) Render(v app.View) error {
	var b strings.Builder
	for i, row := range v.Rows() {
		if i > 0 {
			b.WriteString("---+---+---\n")
		}
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = " " + r.mark(c) + " "
		}
		b.WriteString(strings.Join(cells, "|"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(r.out.String(v.Status).Bold().String())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Moves (%s):\n", v.Order)
	for _, m := range v.Moves {
		prefix := "   "
		if m.Current {
			prefix = " > "
		}
		fmt.Fprintf(&b, "%s%2d. %s\n", prefix, m.Move, m.Description)
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}
