// Package store holds the in-memory state the view layer reads: the lists
// of the active game and the user's games. Every change arrives through
// the orchestrator and is applied as a whole-snapshot swap.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/domain"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/repository"
	"sim-sync/internal/transport"
)

var ErrNoActiveGame = errors.New("no active game")

// Performer runs a call through token refresh and error classification.
// *orchestrator.Orchestrator implements it.
type Performer interface {
	Perform(ctx context.Context, intent orchestrator.Intent, call orchestrator.Call, cb orchestrator.Callbacks, opts ...orchestrator.PerformOption)
}

// ListAPI is the part of *transport.Client the collection store uses.
type ListAPI interface {
	Resources() transport.Resources
	ListLists(ctx context.Context, gameID int, token string) (*transport.Response, error)
	CreateList(ctx context.Context, gameID int, req *domain.CreateListRequest, token string) (*transport.Response, error)
	UpdateList(ctx context.Context, listID int, req *domain.UpdateListRequest, token string) (*transport.Response, error)
	DestroyList(ctx context.Context, listID int, token string) (*transport.Response, error)
	CreateItem(ctx context.Context, listID int, req *domain.CreateItemRequest, token string) (*transport.Response, error)
	UpdateItem(ctx context.Context, itemID int, req *domain.UpdateItemRequest, token string) (*transport.Response, error)
	DestroyItem(ctx context.Context, itemID int, token string) (*transport.Response, error)
}

// Callbacks receive the outcome of a store operation. Exactly one is
// called.
type Callbacks[T any] struct {
	OnSuccess func(T)
	OnError   func(*apierror.Error)
}

func (cb Callbacks[T]) success(v T) {
	if cb.OnSuccess != nil {
		cb.OnSuccess(v)
	}
}

func (cb Callbacks[T]) fail(err *apierror.Error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

// State is what subscribers see. Lists must be treated as read-only.
type State struct {
	Resource string
	GameID   int
	Lists    []domain.List
	Loading  domain.LoadingState
}

type CollectionStore struct {
	api    ListAPI
	perf   Performer
	cache  repository.SnapshotRepository
	logger zerolog.Logger

	mu         sync.RWMutex
	gameID     int
	lists      []domain.List
	loading    domain.LoadingState
	generation uint64
	version    uint64

	pub *publisher[State]
}

type CollectionOption func(*CollectionStore)

// WithCache persists every applied snapshot to repo. Cache failures are
// logged and never affect the in-memory state.
func WithCache(repo repository.SnapshotRepository) CollectionOption {
	return func(s *CollectionStore) {
		s.cache = repo
	}
}

func NewCollectionStore(api ListAPI, perf Performer, logger zerolog.Logger, opts ...CollectionOption) *CollectionStore {
	s := &CollectionStore{
		api:     api,
		perf:    perf,
		loading: domain.Loading,
		pub:     newPublisher[State](),
		logger:  logger.With().Str("component", "collection_store").Str("resource", api.Resources().Lists).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load makes gameID the store's game and fetches its lists. On error the
// lists are emptied and the state becomes Error. When Load is called again
// before an earlier call resolves, only the latest result is applied.
func (s *CollectionStore) Load(ctx context.Context, gameID int, cb Callbacks[State]) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.gameID != gameID {
		s.lists = nil
	}
	s.gameID = gameID
	s.loading = domain.Loading
	state, version := s.publishLocked()
	s.mu.Unlock()
	s.pub.publish(version, state)

	log := s.logger.With().Int("scope_id", gameID).Logger()
	log.Debug().Msg("loading lists")

	call := func(ctx context.Context, token string) (*transport.Response, error) {
		return s.api.ListLists(ctx, gameID, token)
	}

	s.perf.Perform(ctx, loadIntent(s.api.Resources()), call, orchestrator.Callbacks{
		OnSuccess: func(body []byte) {
			lists, err := transport.DecodeLists(body)
			if err != nil {
				apiErr := apierror.Malformed(0, err)
				s.finishLoad(gen, nil, domain.Error)
				cb.fail(apiErr)
				return
			}
			state, applied := s.finishLoad(gen, lists, domain.Done)
			if applied {
				s.saveCache(ctx, state)
			}
			cb.success(state)
		},
		OnError: func(apiErr *apierror.Error) {
			log.Warn().Err(apiErr).Msg("failed to load lists")
			s.finishLoad(gen, nil, domain.Error)
			cb.fail(apiErr)
		},
	})
}

func (s *CollectionStore) finishLoad(gen uint64, lists []domain.List, loading domain.LoadingState) (State, bool) {
	s.mu.Lock()
	if gen != s.generation {
		state := s.stateLocked()
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding superseded load")
		return state, false
	}
	s.lists = lists
	s.loading = loading
	state, version := s.publishLocked()
	s.mu.Unlock()

	s.pub.publish(version, state)
	return state, true
}

// Mutate sends m to the API and, on success, merges the response into the
// snapshot current at that moment. Failures only surface through
// cb.OnError. A response for a game that is no longer active is reported
// to the caller but not applied.
func (s *CollectionStore) Mutate(ctx context.Context, m Mutation, cb Callbacks[State], opts ...orchestrator.PerformOption) {
	s.mu.RLock()
	gameID := s.gameID
	s.mu.RUnlock()

	if _, ok := m.(CreateList); ok && gameID <= 0 {
		cb.fail(&apierror.Error{Kind: apierror.NotFound, Err: ErrNoActiveGame})
		return
	}

	intent := intentFor(m, s.api.Resources())
	log := s.logger.With().Str("intent", intent.String()).Int("scope_id", gameID).Logger()

	s.perf.Perform(ctx, intent, m.call(s.api, gameID), orchestrator.Callbacks{
		OnSuccess: func(body []byte) {
			state, applied, err := s.applyMutation(gameID, m, body)
			if err != nil {
				log.Warn().Err(err).Msg("unexpected mutation response")
				cb.fail(apierror.Malformed(0, err))
				return
			}
			if applied {
				s.saveCache(ctx, state)
			} else {
				log.Debug().Msg("game changed while request was in flight, response not applied")
			}
			cb.success(state)
		},
		OnError: cb.fail,
	}, opts...)
}

func (s *CollectionStore) applyMutation(gameID int, m Mutation, body []byte) (State, bool, error) {
	s.mu.Lock()
	if s.gameID != gameID {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, false, nil
	}

	next, err := m.apply(s.lists, body)
	if err != nil {
		s.mu.Unlock()
		return State{}, false, err
	}
	s.lists = next
	state, version := s.publishLocked()
	s.mu.Unlock()

	s.pub.publish(version, state)
	return state, true, nil
}

// Snapshot returns a copy of the current state.
func (s *CollectionStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *CollectionStore) stateLocked() State {
	return State{
		Resource: s.api.Resources().Lists,
		GameID:   s.gameID,
		Lists:    domain.CloneLists(s.lists),
		Loading:  s.loading,
	}
}

// publishLocked stamps the state just swapped in. Versions follow swap
// order, so the highest one is always the current snapshot.
func (s *CollectionStore) publishLocked() (State, uint64) {
	s.version++
	return s.stateLocked(), s.version
}

// Subscribe registers fn to receive new states. Deliveries are serialized
// and a subscriber's last delivery is always the current snapshot; states
// that are superseded while fn is still running may be skipped. The
// returned function removes the subscription; fn may still be called once
// if a notification is already under way.
func (s *CollectionStore) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.pub.subscribe(fn)
}

// Cached returns the last persisted snapshot of gameID, or
// repository.ErrSnapshotNotFound when there is none or no cache is
// configured.
func (s *CollectionStore) Cached(ctx context.Context, gameID int) (*domain.Snapshot, error) {
	if s.cache == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	return s.cache.Find(ctx, s.api.Resources().Lists, gameID)
}

func (s *CollectionStore) saveCache(ctx context.Context, state State) {
	if s.cache == nil || state.GameID <= 0 {
		return
	}
	err := s.cache.Save(ctx, &domain.Snapshot{
		Resource: state.Resource,
		GameID:   state.GameID,
		Lists:    state.Lists,
		SavedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("scope_id", state.GameID).Msg("failed to cache snapshot")
	}
}
