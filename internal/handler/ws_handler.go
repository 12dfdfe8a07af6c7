package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sim-sync/internal/apierror"
	"sim-sync/internal/config"
	"sim-sync/internal/domain"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/store"
	"sim-sync/internal/websocket"
)

var ErrUnknownOp = errors.New("unknown mutation op")

type WebSocketHandler struct {
	manager   *websocket.Manager
	upgrader  ws.Upgrader
	onConnect func(*websocket.Client)
	logger    zerolog.Logger
}

// NewWebSocketHandler upgrades view connections. onConnect runs once the
// client is registered, typically to send it the current state.
func NewWebSocketHandler(manager *websocket.Manager, cfg config.WebSocketConfig, onConnect func(*websocket.Client), logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		onConnect: onConnect,
		logger:    logger,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := websocket.NewClient(uuid.New().String(), conn, h.manager)
	if err := h.manager.Register(client); err != nil {
		h.logger.Warn().Err(err).Msg("connection refused")
		conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.ClosePolicyViolation, err.Error()),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	if h.onConnect != nil {
		h.onConnect(client)
	}
}

// ListMutator is implemented by *store.CollectionStore.
type ListMutator interface {
	Mutate(ctx context.Context, m store.Mutation, cb store.Callbacks[store.State], opts ...orchestrator.PerformOption)
	Snapshot() store.State
	Subscribe(fn func(store.State)) (unsubscribe func())
}

// GameLister is implemented by *store.GameStore.
type GameLister interface {
	Games() store.GameState
	Subscribe(fn func(store.GameState)) (unsubscribe func())
}

// GameSelector is implemented by *scope.QuerySignal.
type GameSelector interface {
	Set(value string)
}

// Bridge connects the stores to the views: it broadcasts every new state
// and turns view messages into game selections and mutations.
type Bridge struct {
	ctx      context.Context
	manager  *websocket.Manager
	lists    ListMutator
	games    GameLister
	selector GameSelector
	logger   zerolog.Logger
}

func NewBridge(ctx context.Context, manager *websocket.Manager, lists ListMutator, games GameLister, selector GameSelector, logger zerolog.Logger) *Bridge {
	return &Bridge{
		ctx:      ctx,
		manager:  manager,
		lists:    lists,
		games:    games,
		selector: selector,
		logger:   logger.With().Str("component", "bridge").Logger(),
	}
}

// Watch broadcasts store changes until the returned function is called.
func (b *Bridge) Watch() (stop func()) {
	stopLists := b.lists.Subscribe(func(state store.State) {
		if err := b.manager.Broadcast(websocket.TypeSnapshot, snapshotPayload(state)); err != nil {
			b.logger.Warn().Err(err).Msg("failed to broadcast snapshot")
		}
	})
	stopGames := b.games.Subscribe(func(state store.GameState) {
		if err := b.manager.Broadcast(websocket.TypeGames, gamesPayload(state)); err != nil {
			b.logger.Warn().Err(err).Msg("failed to broadcast games")
		}
	})
	return func() {
		stopLists()
		stopGames()
	}
}

// Welcome sends a newly connected client the current games and lists.
func (b *Bridge) Welcome(client *websocket.Client) {
	b.manager.Send(client, websocket.TypeGames, gamesPayload(b.games.Games()))
	b.manager.Send(client, websocket.TypeSnapshot, snapshotPayload(b.lists.Snapshot()))
}

func (b *Bridge) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSelectGame:
		var payload websocket.SelectGamePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		b.selector.Set(payload.GameID)
		return nil

	case websocket.TypeMutation:
		var payload websocket.MutationPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		m, err := toMutation(payload)
		if err != nil {
			return err
		}
		go b.mutate(client, payload, m)
		return nil

	case websocket.TypePing:
		return b.manager.Send(client, websocket.TypePong, nil)

	default:
		b.logger.Debug().Str("type", string(msg.Type)).Msg("unknown message type")
	}

	return nil
}

func (b *Bridge) mutate(client *websocket.Client, payload websocket.MutationPayload, m store.Mutation) {
	noun := b.noun(payload.Op)
	b.lists.Mutate(b.ctx, m, store.Callbacks[store.State]{
		OnSuccess: func(store.State) {
			b.manager.Send(client, websocket.TypeMutationResult, &websocket.MutationResultPayload{ID: payload.ID, OK: true})
		},
		OnError: func(err *apierror.Error) {
			flash := apierror.Message(err, noun)
			b.manager.Send(client, websocket.TypeMutationResult, &websocket.MutationResultPayload{
				ID:       payload.ID,
				Kind:     err.Kind.String(),
				Status:   err.StatusCode,
				Header:   flash.Header,
				Messages: flash.Message,
			})
		},
	})
}

// noun names the record an op saves, e.g. "shopping list item".
func (b *Bridge) noun(op string) string {
	noun := strings.ReplaceAll(strings.TrimSuffix(b.lists.Snapshot().Resource, "s"), "_", " ")
	if strings.HasSuffix(op, "_item") {
		noun += " item"
	}
	return noun
}

func toMutation(p websocket.MutationPayload) (store.Mutation, error) {
	switch p.Op {
	case websocket.OpCreateList:
		req := domain.CreateListRequest{}
		if p.Title != nil {
			req.Title = *p.Title
		}
		return store.CreateList{CreateListRequest: req}, nil
	case websocket.OpUpdateList:
		return store.UpdateList{ListID: p.ListID, UpdateListRequest: domain.UpdateListRequest{Title: p.Title}}, nil
	case websocket.OpDestroyList:
		return store.DestroyList{ListID: p.ListID}, nil
	case websocket.OpCreateItem:
		req := domain.CreateItemRequest{Description: p.Description, UnitWeight: p.UnitWeight, Notes: p.Notes}
		if p.Quantity != nil {
			req.Quantity = *p.Quantity
		}
		return store.CreateItem{ListID: p.ListID, CreateItemRequest: req}, nil
	case websocket.OpUpdateItem:
		return store.UpdateItem{ItemID: p.ItemID, UpdateItemRequest: domain.UpdateItemRequest{
			Quantity:   p.Quantity,
			UnitWeight: p.UnitWeight,
			Notes:      p.Notes,
		}}, nil
	case websocket.OpDestroyItem:
		return store.DestroyItem{ItemID: p.ItemID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, p.Op)
	}
}

func snapshotPayload(state store.State) *websocket.SnapshotPayload {
	lists := state.Lists
	if lists == nil {
		lists = []domain.List{}
	}
	return &websocket.SnapshotPayload{
		Resource: state.Resource,
		GameID:   state.GameID,
		Loading:  state.Loading,
		Lists:    lists,
	}
}

func gamesPayload(state store.GameState) *websocket.GamesPayload {
	games := state.Games
	if games == nil {
		games = []domain.Game{}
	}
	return &websocket.GamesPayload{Loading: state.Loading, Games: games}
}
