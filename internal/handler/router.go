package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"sim-sync/internal/config"
	"sim-sync/internal/middleware"
	"sim-sync/internal/repository"
	"sim-sync/internal/service"
	"sim-sync/internal/transport"
	"sim-sync/pkg/response"
)

// RouterConfig carries what the list API router needs beyond its
// repository.
type RouterConfig struct {
	JWTSecret string
	CORS      config.CORSConfig
	Logger    zerolog.Logger
}

// NewRouter wires the list API: games, both list resources with their
// items, token refresh and health.
func NewRouter(repo repository.InventoryRepository, authService *service.AuthService, cfg RouterConfig) *mux.Router {
	authHandler := NewAuthHandler(authService)
	gameHandler := NewGameHandler(service.NewGameService(repo), cfg.Logger)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(cfg.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS))

	r.HandleFunc("/health", healthHandler).Methods("GET")

	r.HandleFunc("/auth/session", authHandler.Session).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.HandleFunc("/games", gameHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/games", gameHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/games/{id:[0-9]+}", gameHandler.Update).Methods("PATCH", "OPTIONS")
	protected.HandleFunc("/games/{id:[0-9]+}", gameHandler.Delete).Methods("DELETE", "OPTIONS")

	for _, res := range []transport.Resources{transport.ShoppingLists, transport.WishLists} {
		lists := NewListHandler(service.NewListService(repo, res.Lists), cfg.Logger)

		protected.HandleFunc(fmt.Sprintf("/games/{id:[0-9]+}/%s", res.Lists), lists.Index).Methods("GET", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/games/{id:[0-9]+}/%s", res.Lists), lists.Create).Methods("POST", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/%s/{id:[0-9]+}", res.Lists), lists.Update).Methods("PATCH", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/%s/{id:[0-9]+}", res.Lists), lists.Delete).Methods("DELETE", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/%s/{id:[0-9]+}/%s", res.Lists, res.Items), lists.CreateItem).Methods("POST", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/%s/{id:[0-9]+}", res.Items), lists.UpdateItem).Methods("PATCH", "OPTIONS")
		protected.HandleFunc(fmt.Sprintf("/%s/{id:[0-9]+}", res.Items), lists.DeleteItem).Methods("DELETE", "OPTIONS")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed")
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "healthy", "service": "sim-sync"})
}
