package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

// minimal renderer for tests: encode snapshot count and cursor as bytes
func testRenderer(gs GameState) []byte {
	return []byte(fmt.Sprintf("len=%d current=%d", gs.History.Len(), gs.History.CurrentMove()))
}

func TestCreateAndGet(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.History.Next() != domain.X {
		t.Fatalf("expected initial turn X")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should not find unknown id")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	got, _ := s.Get(gs.ID)
	if _, err := got.History.Play(0); err != nil {
		t.Fatalf("play on copy: %v", err)
	}
	latest, _ := s.Get(gs.ID)
	if latest.History.Len() != 1 {
		t.Fatalf("mutating a copy must not touch the stored game, len=%d", latest.History.Len())
	}
}

func TestPlayAlternatesPlayers(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx := context.Background()

	st, err := s.Play(ctx, gs.ID, 0)
	if err != nil {
		t.Fatalf("X play failed: %v", err)
	}
	if st.History.Current()[0] != domain.X || st.History.Next() != domain.O || st.History.CurrentMove() != 1 {
		t.Fatalf("unexpected state after X move: next=%v move=%d", st.History.Next(), st.History.CurrentMove())
	}
	st, err = s.Play(ctx, gs.ID, 4)
	if err != nil {
		t.Fatalf("O play failed: %v", err)
	}
	if st.History.Current()[4] != domain.O {
		t.Fatalf("expected O at 4")
	}
}

func TestPlayRejectionsReturnUnchangedState(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx := context.Background()
	if _, err := s.Play(ctx, gs.ID, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	st, err := s.Play(ctx, gs.ID, 0)
	if !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	if st == nil || st.History.Len() != 2 || st.History.CurrentMove() != 1 {
		t.Fatalf("rejected move must return unchanged state, got %+v", st)
	}
	if _, err := s.Play(ctx, "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJumpThenPlayPrunesFuture(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx := context.Background()
	for _, c := range []int{0, 4, 1} {
		if _, err := s.Play(ctx, gs.ID, c); err != nil {
			t.Fatalf("play %d: %v", c, err)
		}
	}
	st, err := s.JumpTo(ctx, gs.ID, 1)
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if st.History.Len() != 4 || st.History.CurrentMove() != 1 {
		t.Fatalf("jump must only move the cursor")
	}
	st, err = s.Play(ctx, gs.ID, 8)
	if err != nil {
		t.Fatalf("play after jump: %v", err)
	}
	if st.History.Len() != 3 {
		t.Fatalf("expected len 3 after pruning, got %d", st.History.Len())
	}
	if _, err := s.JumpTo(ctx, gs.ID, 3); !errors.Is(err, domain.ErrMoveOutOfRange) {
		t.Fatalf("expected ErrMoveOutOfRange, got %v", err)
	}
}

func TestToggleOrderLeavesHistory(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx := context.Background()
	s.Play(ctx, gs.ID, 0)
	st, err := s.ToggleOrder(ctx, gs.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if st.Order != domain.Descending || st.History.Len() != 2 || st.History.CurrentMove() != 1 {
		t.Fatalf("unexpected state after toggle: %+v", st)
	}
	st, _ = s.ToggleOrder(ctx, gs.ID)
	if st.Order != domain.Ascending {
		t.Fatalf("expected ascending after second toggle")
	}
}

func TestCanceledContext(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Play(ctx, gs.ID, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	latest, _ := s.Get(gs.ID)
	if latest.History.Len() != 1 {
		t.Fatalf("canceled request must not play")
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if _, err := s.Play(ctx, gs.ID, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "len=2 current=1" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}

	// rejected moves are not broadcast
	s.Play(ctx, gs.ID, 0)
	select {
	case b := <-ch:
		t.Fatalf("unexpected broadcast after rejected move: %q", string(b))
	default:
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	s := NewService()
	if _, _, err := s.Subscribe(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewService(WithRenderer(testRenderer))
	gs, _ := s.CreateGame()
	ctx := context.Background()

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(ctx)
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	ctxFast, cancelFast := context.WithTimeout(ctx, time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	for _, c := range []int{0, 4} {
		if _, err := s.Play(ctx, gs.ID, c); err != nil {
			t.Fatalf("play %d: %v", c, err)
		}
		select {
		case <-fastCh:
		case <-ctxFast.Done():
			t.Fatalf("fast subscriber did not receive update in time")
		}
	}

	// The slow channel holds the first payload, then is closed.
	if b, ok := <-slowCh; !ok || string(b) != "len=2 current=1" {
		t.Fatalf("expected buffered first payload, got %q ok=%v", b, ok)
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, _ := s.Subscribe(ctx, gs.ID)
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}

func TestReapRemovesIdleGames(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewService(WithClock(func() time.Time { return now }))
	old, _ := s.CreateGame()
	ch, _, _ := s.Subscribe(context.Background(), old.ID)

	now = now.Add(time.Hour)
	fresh, _ := s.CreateGame()

	if n := s.Reap(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 game reaped, got %d", n)
	}
	if _, ok := s.Get(old.ID); ok {
		t.Fatalf("idle game should be gone")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Fatalf("fresh game should remain")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("subscribers of reaped games should be closed")
	}
}
