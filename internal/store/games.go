package store

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/domain"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/transport"
)

// GameAPI is the part of *transport.Client the game store uses.
type GameAPI interface {
	ListGames(ctx context.Context, token string) (*transport.Response, error)
	CreateGame(ctx context.Context, req *domain.CreateGameRequest, token string) (*transport.Response, error)
	UpdateGame(ctx context.Context, gameID int, req *domain.UpdateGameRequest, token string) (*transport.Response, error)
	DestroyGame(ctx context.Context, gameID int, token string) (*transport.Response, error)
}

type GameState struct {
	Games   []domain.Game
	Loading domain.LoadingState
}

// Loaded reports whether the games list has been fetched successfully.
func (s GameState) Loaded() bool {
	return s.Loading == domain.Done
}

func gameIntent(method string) orchestrator.Intent {
	return orchestrator.Intent{Resource: "games", Method: method}
}

// GameStore holds the user's games, the scopes lists belong to.
type GameStore struct {
	api    GameAPI
	perf   Performer
	logger zerolog.Logger

	mu         sync.RWMutex
	games      []domain.Game
	loading    domain.LoadingState
	generation uint64
	version    uint64

	pub *publisher[GameState]
}

func NewGameStore(api GameAPI, perf Performer, logger zerolog.Logger) *GameStore {
	return &GameStore{
		api:     api,
		perf:    perf,
		loading: domain.Loading,
		pub:     newPublisher[GameState](),
		logger:  logger.With().Str("component", "game_store").Logger(),
	}
}

// Load fetches the games. When Load is called again before an earlier
// call resolves, only the latest result is applied; the earlier caller
// receives the state current when its response arrived.
func (s *GameStore) Load(ctx context.Context, cb Callbacks[GameState]) {
	var gen uint64
	s.set(func() {
		s.generation++
		gen = s.generation
		s.loading = domain.Loading
	})

	call := func(ctx context.Context, token string) (*transport.Response, error) {
		return s.api.ListGames(ctx, token)
	}

	s.perf.Perform(ctx, gameIntent("get"), call, orchestrator.Callbacks{
		OnSuccess: func(body []byte) {
			games, err := transport.DecodeGames(body)
			if err != nil {
				s.finishLoad(gen, nil, domain.Error)
				cb.fail(apierror.Malformed(0, err))
				return
			}
			cb.success(s.finishLoad(gen, games, domain.Done))
		},
		OnError: func(apiErr *apierror.Error) {
			s.logger.Warn().Err(apiErr).Msg("failed to load games")
			s.finishLoad(gen, nil, domain.Error)
			cb.fail(apiErr)
		},
	})
}

func (s *GameStore) finishLoad(gen uint64, games []domain.Game, loading domain.LoadingState) GameState {
	s.mu.Lock()
	if gen != s.generation {
		state := s.stateLocked()
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding superseded load")
		return state
	}
	s.games, s.loading = games, loading
	s.version++
	state, version := s.stateLocked(), s.version
	s.mu.Unlock()

	s.pub.publish(version, state)
	return state
}

// Create adds the new game at the front of the list.
func (s *GameStore) Create(ctx context.Context, req domain.CreateGameRequest, cb Callbacks[domain.Game]) {
	call := func(ctx context.Context, token string) (*transport.Response, error) {
		return s.api.CreateGame(ctx, &req, token)
	}

	s.perf.Perform(ctx, gameIntent("post"), call, orchestrator.Callbacks{
		OnSuccess: func(body []byte) {
			game, err := transport.DecodeGame(body)
			if err != nil {
				cb.fail(apierror.Malformed(0, err))
				return
			}
			s.set(func() {
				s.games = append([]domain.Game{game}, s.games...)
			})
			cb.success(game)
		},
		OnError: cb.fail,
	})
}

// Update replaces the game in place.
func (s *GameStore) Update(ctx context.Context, gameID int, req domain.UpdateGameRequest, cb Callbacks[domain.Game]) {
	call := func(ctx context.Context, token string) (*transport.Response, error) {
		return s.api.UpdateGame(ctx, gameID, &req, token)
	}

	s.perf.Perform(ctx, gameIntent("patch"), call, orchestrator.Callbacks{
		OnSuccess: func(body []byte) {
			game, err := transport.DecodeGame(body)
			if err != nil {
				cb.fail(apierror.Malformed(0, err))
				return
			}
			s.set(func() {
				next := slices.Clone(s.games)
				if idx := slices.IndexFunc(next, func(g domain.Game) bool { return g.ID == gameID }); idx >= 0 {
					next[idx] = game
				}
				s.games = next
			})
			cb.success(game)
		},
		OnError: cb.fail,
	})
}

// Destroy removes the game. The server answers 204 with no body.
func (s *GameStore) Destroy(ctx context.Context, gameID int, cb Callbacks[GameState]) {
	call := func(ctx context.Context, token string) (*transport.Response, error) {
		return s.api.DestroyGame(ctx, gameID, token)
	}

	s.perf.Perform(ctx, gameIntent("delete"), call, orchestrator.Callbacks{
		OnSuccess: func([]byte) {
			cb.success(s.set(func() {
				s.games = slices.DeleteFunc(slices.Clone(s.games), func(g domain.Game) bool { return g.ID == gameID })
			}))
		},
		OnError: cb.fail,
	})
}

// Games returns a copy of the current state.
func (s *GameStore) Games() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *GameStore) stateLocked() GameState {
	return GameState{Games: slices.Clone(s.games), Loading: s.loading}
}

func (s *GameStore) set(fn func()) GameState {
	s.mu.Lock()
	fn()
	s.version++
	state, version := s.stateLocked(), s.version
	s.mu.Unlock()

	s.pub.publish(version, state)
	return state
}

// Subscribe registers fn to receive new states, delivered the same way as
// CollectionStore.Subscribe.
func (s *GameStore) Subscribe(fn func(GameState)) (unsubscribe func()) {
	return s.pub.subscribe(fn)
}
