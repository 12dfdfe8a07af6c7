package cli

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"sim-sync/internal/apierror"
	"sim-sync/internal/handler"
	"sim-sync/internal/middleware"
	"sim-sync/internal/scope"
	"sim-sync/internal/store"
	"sim-sync/internal/websocket"
	"sim-sync/pkg/response"
)

var bridgeGame string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the active game's lists to views over WebSocket",
	Long: `Load the user's games, resolve the active game and keep its lists in
sync with the list API. Views connect to /ws to receive snapshots and send
game selections and mutations. Metrics are served on /metrics.`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeGame, "game", "", "requested game id (default from GAME_ID)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := newStack(ctx, cfg, log, stackOptions{registerer: reg, cache: true})
	if err != nil {
		return err
	}
	defer s.Close()

	requested := bridgeGame
	if requested == "" && cfg.Sync.GameID > 0 {
		requested = strconv.Itoa(cfg.Sync.GameID)
	}
	signal := scope.NewQuerySignal(url.Values{scope.GameIDParam: {requested}})

	manager := websocket.NewManager(cfg.WebSocket, log)
	bridge := handler.NewBridge(ctx, manager, s.lists, s.games, signal, log)
	manager.SetMessageHandler(bridge)
	go manager.Run(ctx)

	stopWatch := bridge.Watch()
	defer stopWatch()

	resolver := scope.NewResolver(signal, s.games, s.lists, log)
	resolver.OnChange(func(gameID int) {
		if cached, err := s.lists.Cached(ctx, gameID); err == nil {
			log.Debug().Int("scope_id", gameID).Time("saved_at", cached.SavedAt).Msg("cached snapshot available")
		}
	})
	resolver.Start(ctx)
	defer resolver.Stop()

	s.session.OnSignOut(func() {
		log.Warn().Msg("session ended, sign in again to resume syncing")
	})

	go s.games.Load(ctx, store.Callbacks[store.GameState]{
		OnError: func(err *apierror.Error) {
			log.Error().Err(err).Msg("failed to load games")
		},
	})

	wsHandler := handler.NewWebSocketHandler(manager, cfg.WebSocket, bridge.Welcome, log)

	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.CORS))
	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		gameID, _ := resolver.Active()
		response.Success(w, map[string]interface{}{
			"status":      "healthy",
			"game_id":     gameID,
			"connections": manager.Connections(),
			"busy":        s.orchestrator.Busy(),
		})
	}).Methods("GET")

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("api", cfg.API.BaseURL).Str("resource", cfg.API.ListResource).Msg("starting bridge")
	return serveUntilSignal(srv)
}
