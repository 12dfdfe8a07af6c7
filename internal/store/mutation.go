package store

import (
	"context"

	"sim-sync/internal/domain"
	"sim-sync/internal/merge"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/transport"
)

// Mutation is one of CreateList, UpdateList, DestroyList, CreateItem,
// UpdateItem or DestroyItem.
type Mutation interface {
	method() string
	onItems() bool
	call(api ListAPI, gameID int) orchestrator.Call
	apply(snapshot []domain.List, body []byte) ([]domain.List, error)
}

type CreateList struct {
	domain.CreateListRequest
}

type UpdateList struct {
	ListID int
	domain.UpdateListRequest
}

type DestroyList struct {
	ListID int
}

type CreateItem struct {
	ListID int
	domain.CreateItemRequest
}

type UpdateItem struct {
	ItemID int
	domain.UpdateItemRequest
}

type DestroyItem struct {
	ItemID int
}

func (CreateList) method() string { return "post" }
func (CreateList) onItems() bool  { return false }

func (m CreateList) call(api ListAPI, gameID int) orchestrator.Call {
	req := m.CreateListRequest
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.CreateList(ctx, gameID, &req, token)
	}
}

// The created-list variant is decided here, against the snapshot current
// when the response arrives, so two concurrent creates in an empty game
// resolve as FirstListInScope followed by ListAdded.
func (CreateList) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	_, hasAggregate := merge.AggregateOf(snapshot)
	delta, err := transport.DecodeListCreated(body, hasAggregate)
	if err != nil {
		return nil, err
	}
	return merge.ApplyListCreated(snapshot, delta), nil
}

func (UpdateList) method() string { return "patch" }
func (UpdateList) onItems() bool  { return false }

func (m UpdateList) call(api ListAPI, _ int) orchestrator.Call {
	req := m.UpdateListRequest
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.UpdateList(ctx, m.ListID, &req, token)
	}
}

func (m UpdateList) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	list, err := transport.DecodeList(body)
	if err != nil {
		return nil, err
	}
	return merge.ApplyListUpdated(snapshot, m.ListID, list), nil
}

func (DestroyList) method() string { return "delete" }
func (DestroyList) onItems() bool  { return false }

func (m DestroyList) call(api ListAPI, _ int) orchestrator.Call {
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.DestroyList(ctx, m.ListID, token)
	}
}

func (DestroyList) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	delta, err := transport.DecodeListDestroyed(body)
	if err != nil {
		return nil, err
	}
	return merge.ApplyListDestroyed(snapshot, delta), nil
}

func (CreateItem) method() string { return "post" }
func (CreateItem) onItems() bool  { return true }

func (m CreateItem) call(api ListAPI, _ int) orchestrator.Call {
	req := m.CreateItemRequest
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.CreateItem(ctx, m.ListID, &req, token)
	}
}

func (CreateItem) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	delta, err := transport.DecodeItems(body)
	if err != nil {
		return nil, err
	}
	return merge.ApplyItemCreated(snapshot, delta), nil
}

func (UpdateItem) method() string { return "patch" }
func (UpdateItem) onItems() bool  { return true }

func (m UpdateItem) call(api ListAPI, _ int) orchestrator.Call {
	req := m.UpdateItemRequest
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.UpdateItem(ctx, m.ItemID, &req, token)
	}
}

func (UpdateItem) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	delta, err := transport.DecodeItems(body)
	if err != nil {
		return nil, err
	}
	return merge.ApplyItemUpdated(snapshot, delta), nil
}

func (DestroyItem) method() string { return "delete" }
func (DestroyItem) onItems() bool  { return true }

func (m DestroyItem) call(api ListAPI, _ int) orchestrator.Call {
	return func(ctx context.Context, token string) (*transport.Response, error) {
		return api.DestroyItem(ctx, m.ItemID, token)
	}
}

func (m DestroyItem) apply(snapshot []domain.List, body []byte) ([]domain.List, error) {
	delta, err := transport.DecodeItemDestroyed(body)
	if err != nil {
		return nil, err
	}
	return merge.ApplyItemDestroyed(snapshot, m.ItemID, delta), nil
}

func intentFor(m Mutation, res transport.Resources) orchestrator.Intent {
	resource := res.Lists
	if m.onItems() {
		resource = res.Items
	}
	return orchestrator.Intent{Resource: resource, Method: m.method()}
}

// loadIntent names the GET that populates a game's lists.
func loadIntent(res transport.Resources) orchestrator.Intent {
	return orchestrator.Intent{Resource: res.Lists, Method: "get"}
}
