package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/config"
	"sim-sync/internal/credentials"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/repository"
	"sim-sync/internal/store"
	"sim-sync/internal/transport"
)

const couchSnapshotDB = "simsync_snapshots"

// stack is the client side of the sync pipeline: credentials, transport,
// orchestrator and both stores.
type stack struct {
	session      *credentials.Session
	client       *transport.Client
	orchestrator *orchestrator.Orchestrator
	games        *store.GameStore
	lists        *store.CollectionStore
	cache        repository.SnapshotRepository
}

type stackOptions struct {
	registerer prometheus.Registerer
	cache      bool
}

func newStack(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts stackOptions) (*stack, error) {
	resources, err := transport.ResourcesFor(cfg.API.ListResource)
	if err != nil {
		return nil, err
	}

	session := credentials.NewSession(cfg.Auth.AccessToken, cfg.Auth.RefreshToken, cfg.Auth.RefreshURL, cfg.API.Timeout, logger)
	client := transport.NewClient(cfg.API.BaseURL, resources, cfg.API.Timeout, logger)

	orchOpts := []orchestrator.Option{orchestrator.WithDefaultAuthRetries(cfg.Sync.MaxAuthRetries)}
	if opts.registerer != nil {
		recorder, err := orchestrator.NewPrometheusRecorder(opts.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		orchOpts = append(orchOpts, orchestrator.WithMetrics(recorder))
	}
	orch := orchestrator.New(session, logger, orchOpts...)

	s := &stack{
		session:      session,
		client:       client,
		orchestrator: orch,
		games:        store.NewGameStore(client, orch, logger),
	}

	var storeOpts []store.CollectionOption
	if opts.cache {
		cache, err := openCache(ctx, cfg.Sync)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			s.cache = cache
			storeOpts = append(storeOpts, store.WithCache(cache))
		}
	}
	s.lists = store.NewCollectionStore(client, orch, logger, storeOpts...)

	return s, nil
}

func (s *stack) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// openCache returns nil when caching is off.
func openCache(ctx context.Context, cfg config.SyncConfig) (repository.SnapshotRepository, error) {
	switch cfg.CacheDriver {
	case config.CacheCouch:
		return repository.OpenCouchSnapshotRepository(ctx, cfg.CacheDSN, couchSnapshotDB)
	case config.CacheSQLite:
		dsn := cfg.CacheDSN
		if dsn == "" {
			dsn = "simsync.db"
		}
		return repository.NewSQLiteSnapshotRepository(dsn)
	default:
		return nil, nil
	}
}

// loadLists makes gameID the store's game and waits for its lists.
func (s *stack) loadLists(ctx context.Context, gameID int) (store.State, error) {
	var (
		state  store.State
		outErr error
	)
	s.lists.Load(ctx, gameID, store.Callbacks[store.State]{
		OnSuccess: func(st store.State) { state = st },
		OnError:   func(err *apierror.Error) { outErr = failure(err, "game") },
	})
	return state, outErr
}

func (s *stack) mutate(ctx context.Context, m store.Mutation, noun string) (store.State, error) {
	var (
		state  store.State
		outErr error
	)
	s.lists.Mutate(ctx, m, store.Callbacks[store.State]{
		OnSuccess: func(st store.State) { state = st },
		OnError:   func(err *apierror.Error) { outErr = failure(err, noun) },
	})
	return state, outErr
}

// failure turns a classified API error into the message a user would see.
func failure(err *apierror.Error, noun string) error {
	flash := apierror.Message(err, noun)
	msg := strings.Join(flash.Message, "\n  ")
	if flash.Header != "" {
		msg = flash.Header + "\n  " + msg
	}
	return errors.New(msg)
}

// listNoun is "shopping list" or "wish list".
func listNoun(resource string) string {
	return strings.ReplaceAll(strings.TrimSuffix(resource, "s"), "_", " ")
}
