package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	History *domain.History
	Order   domain.Order
	Created time.Time
	Updated time.Time
}

func (gs *GameState) clone() *GameState {
	cp := *gs
	cp.History = gs.History.Clone()
	return &cp
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers.
type Service struct {
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "service").Logger() }
}

// WithRenderer sets the broadcast renderer.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service. Without WithRenderer broadcasts carry no payload.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: func(GameState) []byte { return nil },
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := s.now()
	gs := &GameState{ID: id, History: domain.NewHistory(), Created: now, Updated: now}
	s.games[id] = gs
	s.log.Info().Str("game", id).Msg("game created")
	return gs.clone(), nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	return gs.clone(), true
}

// Play marks cell for the player to move on the selected snapshot. A rejected
// move returns the unchanged state together with the domain error and is not
// broadcast.
func (s *Service) Play(ctx context.Context, id string, cell int) (*GameState, error) {
	return s.mutate(ctx, id, "play", func(gs *GameState) error {
		_, err := gs.History.Play(cell)
		if err == nil {
			s.log.Info().Str("game", id).Int("cell", cell).
				Int("move", gs.History.CurrentMove()).
				Stringer("status", gs.History.Status()).
				Msg("move accepted")
		}
		return err
	})
}

// JumpTo selects a prior snapshot without altering the timeline.
func (s *Service) JumpTo(ctx context.Context, id string, move int) (*GameState, error) {
	return s.mutate(ctx, id, "jump", func(gs *GameState) error {
		return gs.History.JumpTo(move)
	})
}

// ToggleOrder flips the move-list order. History is untouched.
func (s *Service) ToggleOrder(ctx context.Context, id string) (*GameState, error) {
	return s.mutate(ctx, id, "order", func(gs *GameState) error {
		gs.Order = gs.Order.Toggle()
		return nil
	})
}

// mutate runs fn under the lock and fans out the rendered result when fn succeeds.
func (s *Service) mutate(ctx context.Context, id, op string, fn func(*GameState) error) (*GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dropped := 0

	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if err := fn(gs); err != nil {
		cp := gs.clone()
		s.mu.Unlock()
		s.log.Debug().Str("game", id).Str("op", op).Err(err).Msg("rejected")
		return cp, err
	}
	gs.Updated = s.now()
	cp := gs.clone()
	payload := s.render(*cp)

	// Fan-out under the lock so no channel is closed mid-send; drop slow
	// subscribers instead of blocking.
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(s.subs[id], sub)
			dropped++
		}
	}
	s.mu.Unlock()
	if dropped > 0 {
		s.log.Debug().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
	return cp, nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; ErrNotFound for unknown games.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
			s.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// Reap removes games not updated within maxIdle and closes their subscribers.
// It returns the number of games removed.
func (s *Service) Reap(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	n := 0
	for id, gs := range s.games {
		if gs.Updated.After(cutoff) {
			continue
		}
		for sub := range s.subs[id] {
			sub.close()
		}
		delete(s.subs, id)
		delete(s.games, id)
		n++
	}
	if n > 0 {
		s.log.Info().Int("games", n).Msg("reaped idle games")
	}
	return n
}

// RunReaper calls Reap every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Reap(maxIdle)
		}
	}
}
