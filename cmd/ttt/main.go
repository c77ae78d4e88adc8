// Command ttt plays hot-seat tic-tac-toe with time travel in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-timetravel/internal/app"
	"github.com/jaminalder/tictactoe-timetravel/internal/domain"
	"github.com/jaminalder/tictactoe-timetravel/internal/logging"
	"github.com/jaminalder/tictactoe-timetravel/internal/term"
)

const help = `commands:
  0-8        play a cell
  r c        play row r, column c (0-2)
  jump n     go to move n
  order      toggle move list order
  new        start over
  quit       exit`

func main() {
	log := logging.New(os.Stderr, zerolog.WarnLevel, true)
	if err := run(context.Background(), os.Stdin, os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("ttt")
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, log zerolog.Logger) error {
	svc := app.NewService(app.WithLogger(log))
	r := term.NewRenderer(out)
	gs, err := svc.CreateGame()
	if err != nil {
		return err
	}
	id := gs.ID
	fmt.Fprintln(out, help)

	sc := bufio.NewScanner(in)
	for {
		if err := r.Render(app.Snapshot(*gs)); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		var next *app.GameState
		switch fields[0] {
		case "quit", "q", "exit":
			return nil
		case "help", "?":
			fmt.Fprintln(out, help)
			continue
		case "new":
			next, err = svc.CreateGame()
			if err == nil {
				id = next.ID
			}
		case "order":
			next, err = svc.ToggleOrder(ctx, id)
		case "jump":
			n := -1
			if len(fields) == 2 {
				if v, perr := strconv.Atoi(fields[1]); perr == nil {
					n = v
				}
			}
			next, err = svc.JumpTo(ctx, id, n)
		default:
			next, err = svc.Play(ctx, id, parseCell(fields))
		}
		switch {
		case errors.Is(err, domain.ErrOccupied), errors.Is(err, domain.ErrGameOver),
			errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrMoveOutOfRange):
			// rejected input leaves the game as it was
		case err != nil:
			return err
		}
		if next != nil {
			gs = next
		}
	}
}

func parseCell(fields []string) int {
	switch len(fields) {
	case 1:
		if c, err := strconv.Atoi(fields[0]); err == nil {
			return c
		}
	case 2:
		ri, rerr := strconv.Atoi(fields[0])
		ci, cerr := strconv.Atoi(fields[1])
		if rerr == nil && cerr == nil {
			if c, err := domain.CellAt(ri, ci); err == nil {
				return c
			}
		}
	}
	return -1
}
