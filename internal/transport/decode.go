package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"sim-sync/internal/domain"
)

// ErrUnexpectedShape is wrapped by every decoder when a success body does
// not have the documented shape.
var ErrUnexpectedShape = errors.New("unexpected response shape")

func DecodeGames(body []byte) ([]domain.Game, error) {
	var games []domain.Game
	if err := decodeStrict(body, &games); err != nil {
		return nil, err
	}
	if games == nil {
		return nil, fmt.Errorf("%w: expected an array of games", ErrUnexpectedShape)
	}
	return games, nil
}

func DecodeGame(body []byte) (domain.Game, error) {
	var game domain.Game
	if err := decodeStrict(body, &game); err != nil {
		return domain.Game{}, err
	}
	if game.ID == 0 {
		return domain.Game{}, fmt.Errorf("%w: game without id", ErrUnexpectedShape)
	}
	return game, nil
}

func DecodeLists(body []byte) ([]domain.List, error) {
	var lists []domain.List
	if err := decodeStrict(body, &lists); err != nil {
		return nil, err
	}
	if lists == nil {
		return nil, fmt.Errorf("%w: expected an array of lists", ErrUnexpectedShape)
	}
	return lists, nil
}

func DecodeList(body []byte) (domain.List, error) {
	var list domain.List
	if err := decodeStrict(body, &list); err != nil {
		return domain.List{}, err
	}
	if list.ID == 0 {
		return domain.List{}, fmt.Errorf("%w: list without id", ErrUnexpectedShape)
	}
	return list, nil
}

// DecodeListCreated turns the [aggregate, newList] pair into a tagged
// variant. Whether the aggregate was created alongside the list depends
// on whether the scope already had one.
func DecodeListCreated(body []byte, scopeHasAggregate bool) (domain.ListCreated, error) {
	lists, err := DecodeLists(body)
	if err != nil {
		return domain.ListCreated{}, err
	}
	if len(lists) != 2 {
		return domain.ListCreated{}, fmt.Errorf("%w: expected 2 lists, got %d", ErrUnexpectedShape, len(lists))
	}
	if !lists[0].Aggregate || lists[1].Aggregate {
		return domain.ListCreated{}, fmt.Errorf("%w: expected [aggregate, list]", ErrUnexpectedShape)
	}

	kind := domain.ListAdded
	if !scopeHasAggregate {
		kind = domain.FirstListInScope
	}
	return domain.ListCreated{Kind: kind, Aggregate: lists[0], List: lists[1]}, nil
}

func DecodeListDestroyed(body []byte) (domain.ListDestroyed, error) {
	var raw struct {
		Aggregate *domain.List `json:"aggregate"`
		Deleted   []int        `json:"deleted"`
	}
	if err := decodeStrict(body, &raw); err != nil {
		return domain.ListDestroyed{}, err
	}
	if len(raw.Deleted) == 0 {
		return domain.ListDestroyed{}, fmt.Errorf("%w: no deleted ids", ErrUnexpectedShape)
	}
	if raw.Aggregate != nil && !raw.Aggregate.Aggregate {
		return domain.ListDestroyed{}, fmt.Errorf("%w: aggregate field holds a regular list", ErrUnexpectedShape)
	}
	return domain.ListDestroyed{Aggregate: raw.Aggregate, Deleted: raw.Deleted}, nil
}

// DecodeItems reads the one or two item records returned by an item
// create or update.
func DecodeItems(body []byte) (domain.ItemsChanged, error) {
	var items []*domain.Item
	if err := decodeStrict(body, &items); err != nil {
		return domain.ItemsChanged{}, err
	}
	if len(items) == 0 || len(items) > 2 {
		return domain.ItemsChanged{}, fmt.Errorf("%w: expected 1 or 2 items, got %d", ErrUnexpectedShape, len(items))
	}

	out := domain.ItemsChanged{Items: make([]domain.Item, 0, len(items))}
	for _, it := range items {
		if it == nil {
			return domain.ItemsChanged{}, fmt.Errorf("%w: null item record", ErrUnexpectedShape)
		}
		out.Items = append(out.Items, *it)
	}
	return out, nil
}

// DecodeItemDestroyed reads the [aggregateItem|null, regularItem|null]
// pair returned by an item deletion.
func DecodeItemDestroyed(body []byte) (domain.ItemDestroyed, error) {
	var items []*domain.Item
	if err := decodeStrict(body, &items); err != nil {
		return domain.ItemDestroyed{}, err
	}
	if len(items) != 2 {
		return domain.ItemDestroyed{}, fmt.Errorf("%w: expected 2 entries, got %d", ErrUnexpectedShape, len(items))
	}
	return domain.ItemDestroyed{Aggregate: items[0], Regular: items[1]}, nil
}

func decodeStrict(body []byte, v interface{}) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return nil
}
