package scope

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/store"
)

// Loader is implemented by *store.CollectionStore.
type Loader interface {
	Load(ctx context.Context, gameID int, cb store.Callbacks[store.State])
}

// GameSource is implemented by *store.GameStore.
type GameSource interface {
	Games() store.GameState
	Subscribe(fn func(store.GameState)) (unsubscribe func())
}

// Resolver watches the requested-game signal and the available games, and
// calls Load each time the resolved game changes. It never fetches
// anything itself.
type Resolver struct {
	signal Signal
	games  GameSource
	loader Loader
	logger zerolog.Logger

	mu       sync.Mutex
	active   int
	onChange []func(int)
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewResolver(signal Signal, games GameSource, loader Loader, logger zerolog.Logger) *Resolver {
	return &Resolver{
		signal: signal,
		games:  games,
		loader: loader,
		logger: logger.With().Str("component", "scope_resolver").Logger(),
	}
}

// OnChange registers fn to run with the newly resolved game id, before
// its lists are loaded.
func (r *Resolver) OnChange(fn func(gameID int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Start resolves once and then again on every signal or games change
// until Stop is called or ctx is done. Loads run on the resolver's own
// goroutine, one at a time.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	trigger := make(chan struct{}, 1)
	poke := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	stopSignal := r.signal.Subscribe(func(string) { poke() })
	stopGames := r.games.Subscribe(func(store.GameState) { poke() })
	poke()

	go func() {
		defer close(done)
		defer stopSignal()
		defer stopGames()

		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				r.resolve(ctx)
			}
		}
	}()
}

func (r *Resolver) resolve(ctx context.Context) {
	state := r.games.Games()
	gameID, ok := Resolve(r.signal.Value(), state.Games, state.Loaded())
	if !ok {
		return
	}

	r.mu.Lock()
	if gameID == r.active {
		r.mu.Unlock()
		return
	}
	r.active = gameID
	hooks := append([]func(int){}, r.onChange...)
	r.mu.Unlock()

	r.logger.Info().Int("scope_id", gameID).Msg("active game changed")
	for _, hook := range hooks {
		hook(gameID)
	}

	r.loader.Load(ctx, gameID, store.Callbacks[store.State]{
		OnError: func(err *apierror.Error) {
			r.logger.Warn().Err(err).Int("scope_id", gameID).Msg("failed to load lists")
		},
	})
}

// Stop ends the watch loop and waits for an in-flight load to return.
func (r *Resolver) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active returns the resolved game, if any.
func (r *Resolver) Active() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active > 0
}
