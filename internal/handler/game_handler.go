package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"sim-sync/internal/domain"
	"sim-sync/internal/middleware"
	"sim-sync/internal/service"
	"sim-sync/pkg/response"
)

type GameHandler struct {
	service  *service.GameService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewGameHandler(service *service.GameService, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger,
	}
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, games)
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	game, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Created(w, game)
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var req domain.UpdateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	game, err := h.service.Update(r.Context(), middleware.GetUserID(r), gameID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, game)
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	if err := h.service.Destroy(r.Context(), middleware.GetUserID(r), gameID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}
