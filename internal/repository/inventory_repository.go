package repository

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"sim-sync/internal/domain"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
)

// InventoryTx reads and writes games, lists and items. Lists live under a
// resource name ("shopping_lists", "wish_lists"); ids are unique across
// resources.
type InventoryTx interface {
	Games(userID string) []domain.Game
	FindGame(id int) (domain.Game, bool)
	PutGame(game *domain.Game)
	DeleteGame(id int)

	Lists(resource string, gameID int) []domain.List
	FindList(resource string, id int) (domain.List, bool)
	PutList(resource string, list *domain.List)
	DeleteList(resource string, id int)

	FindItem(resource string, id int) (domain.Item, bool)
	PutItem(resource string, item *domain.Item) error
	DeleteItem(resource string, id int)
}

// InventoryRepository is the simulated API's store. Changes made inside
// RunInTransaction become visible only when fn returns nil.
type InventoryRepository interface {
	RunInTransaction(ctx context.Context, fn func(tx InventoryTx) error) error
	View(ctx context.Context, fn func(tx InventoryTx) error) error
}

type inventoryState struct {
	games      map[int]domain.Game
	lists      map[string]map[int]domain.List
	nextGameID int
	nextListID int
	nextItemID int
}

func (s inventoryState) clone() inventoryState {
	out := s
	out.games = make(map[int]domain.Game, len(s.games))
	for id, g := range s.games {
		out.games[id] = g
	}
	out.lists = make(map[string]map[int]domain.List, len(s.lists))
	for res, lists := range s.lists {
		cloned := make(map[int]domain.List, len(lists))
		for id, l := range lists {
			cloned[id] = l.Clone()
		}
		out.lists[res] = cloned
	}
	return out
}

type memoryInventoryRepository struct {
	mu    sync.RWMutex
	state inventoryState
	nowFn func() time.Time
}

func NewMemoryInventoryRepository() InventoryRepository {
	return &memoryInventoryRepository{
		state: inventoryState{
			games:      make(map[int]domain.Game),
			lists:      make(map[string]map[int]domain.List),
			nextGameID: 1,
			nextListID: 1,
			nextItemID: 1,
		},
		nowFn: time.Now,
	}
}

func (r *memoryInventoryRepository) RunInTransaction(ctx context.Context, fn func(tx InventoryTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &inventoryTx{state: r.state.clone(), now: r.nowFn()}
	if err := fn(tx); err != nil {
		return err
	}

	r.state = tx.state
	return nil
}

func (r *memoryInventoryRepository) View(ctx context.Context, fn func(tx InventoryTx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(&inventoryTx{state: r.state.clone(), now: r.nowFn()})
}

type inventoryTx struct {
	state inventoryState
	now   time.Time
}

func (tx *inventoryTx) Games(userID string) []domain.Game {
	var games []domain.Game
	for _, g := range tx.state.games {
		if g.UserID == userID {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games
}

func (tx *inventoryTx) FindGame(id int) (domain.Game, bool) {
	g, ok := tx.state.games[id]
	return g, ok
}

func (tx *inventoryTx) PutGame(game *domain.Game) {
	if game.ID == 0 {
		game.ID = tx.state.nextGameID
		tx.state.nextGameID++
		game.CreatedAt = tx.now
	}
	game.UpdatedAt = tx.now
	tx.state.games[game.ID] = *game
}

// DeleteGame removes the game and every list it owns.
func (tx *inventoryTx) DeleteGame(id int) {
	delete(tx.state.games, id)
	for _, lists := range tx.state.lists {
		for listID, l := range lists {
			if l.GameID == id {
				delete(lists, listID)
			}
		}
	}
}

// Lists returns the aggregate list first, then regular lists newest first.
func (tx *inventoryTx) Lists(resource string, gameID int) []domain.List {
	var lists []domain.List
	for _, l := range tx.state.lists[resource] {
		if l.GameID == gameID {
			lists = append(lists, l.Clone())
		}
	}
	sort.Slice(lists, func(i, j int) bool {
		if lists[i].Aggregate != lists[j].Aggregate {
			return lists[i].Aggregate
		}
		return lists[i].ID > lists[j].ID
	})
	return lists
}

func (tx *inventoryTx) FindList(resource string, id int) (domain.List, bool) {
	l, ok := tx.state.lists[resource][id]
	if !ok {
		return domain.List{}, false
	}
	return l.Clone(), true
}

func (tx *inventoryTx) PutList(resource string, list *domain.List) {
	lists, ok := tx.state.lists[resource]
	if !ok {
		lists = make(map[int]domain.List)
		tx.state.lists[resource] = lists
	}
	if list.ID == 0 {
		list.ID = tx.state.nextListID
		tx.state.nextListID++
		list.CreatedAt = tx.now
	}
	if list.Items == nil {
		list.Items = []domain.Item{}
	}
	list.UpdatedAt = tx.now
	lists[list.ID] = list.Clone()
}

func (tx *inventoryTx) DeleteList(resource string, id int) {
	delete(tx.state.lists[resource], id)
}

func (tx *inventoryTx) FindItem(resource string, id int) (domain.Item, bool) {
	for _, l := range tx.state.lists[resource] {
		if idx := slices.IndexFunc(l.Items, func(it domain.Item) bool { return it.ID == id }); idx >= 0 {
			return l.Items[idx], true
		}
	}
	return domain.Item{}, false
}

// PutItem assigns an id to a new item and files it on its list, replacing
// the stored item with the same id.
func (tx *inventoryTx) PutItem(resource string, item *domain.Item) error {
	l, ok := tx.state.lists[resource][item.ListID]
	if !ok {
		return ErrListNotFound
	}
	if item.ID == 0 {
		item.ID = tx.state.nextItemID
		tx.state.nextItemID++
	}

	l = l.Clone()
	if idx := slices.IndexFunc(l.Items, func(it domain.Item) bool { return it.ID == item.ID }); idx >= 0 {
		l.Items[idx] = *item
	} else {
		l.Items = append(l.Items, *item)
	}
	l.UpdatedAt = tx.now
	tx.state.lists[resource][l.ID] = l
	return nil
}

func (tx *inventoryTx) DeleteItem(resource string, id int) {
	for listID, l := range tx.state.lists[resource] {
		idx := slices.IndexFunc(l.Items, func(it domain.Item) bool { return it.ID == id })
		if idx < 0 {
			continue
		}
		l = l.Clone()
		l.Items = slices.Delete(l.Items, idx, idx+1)
		l.UpdatedAt = tx.now
		tx.state.lists[resource][listID] = l
		return
	}
}
