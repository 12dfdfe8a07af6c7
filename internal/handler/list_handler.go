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

// ListHandler serves one list resource and its items.
type ListHandler struct {
	service  *service.ListService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewListHandler(service *service.ListService, logger zerolog.Logger) *ListHandler {
	return &ListHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger.With().Str("resource", service.Resource()).Logger(),
	}
}

func (h *ListHandler) Index(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	lists, err := h.service.Index(r.Context(), middleware.GetUserID(r), gameID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, lists)
}

// Create answers [aggregate, list].
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var req domain.CreateListRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	lists, err := h.service.Create(r.Context(), middleware.GetUserID(r), gameID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Created(w, lists)
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var req domain.UpdateListRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	list, err := h.service.Update(r.Context(), middleware.GetUserID(r), listID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, list)
}

// Delete answers {"aggregate": list|null, "deleted": [ids]}.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	destroyed, err := h.service.Destroy(r.Context(), middleware.GetUserID(r), listID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, destroyed)
}

// CreateItem answers [aggregateItem, item].
func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var req domain.CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	items, err := h.service.CreateItem(r.Context(), middleware.GetUserID(r), listID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Created(w, items)
}

// UpdateItem answers [aggregateItem, item].
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var req domain.UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Unprocessable(w, validationMessages(err))
		return
	}

	items, err := h.service.UpdateItem(r.Context(), middleware.GetUserID(r), itemID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, items)
}

// DeleteItem answers [aggregateItem|null, null].
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	destroyed, err := h.service.DestroyItem(r.Context(), middleware.GetUserID(r), itemID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	response.Success(w, []*domain.Item{destroyed.Aggregate, destroyed.Regular})
}
