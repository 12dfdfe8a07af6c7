package service

import (
	"context"
	"slices"
	"strings"

	"sim-sync/internal/domain"
	"sim-sync/internal/repository"
)

const notesSeparator = " -- "

// ListService serves one list resource (shopping lists or wish lists) and
// keeps each game's aggregate list in step with its regular lists.
type ListService struct {
	repo     repository.InventoryRepository
	resource string
}

func NewListService(repo repository.InventoryRepository, resource string) *ListService {
	return &ListService{repo: repo, resource: resource}
}

func (s *ListService) Resource() string {
	return s.resource
}

func (s *ListService) Index(ctx context.Context, userID string, gameID int) ([]domain.List, error) {
	lists := []domain.List{}
	err := s.repo.View(ctx, func(tx repository.InventoryTx) error {
		if !ownsGame(tx, userID, gameID) {
			return ErrNotFound
		}
		lists = append(lists, tx.Lists(s.resource, gameID)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// Create adds a regular list and returns [aggregate, list]. The aggregate
// list is created along with the first regular list of a game.
func (s *ListService) Create(ctx context.Context, userID string, gameID int, req *domain.CreateListRequest) ([]domain.List, error) {
	var out []domain.List
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		if !ownsGame(tx, userID, gameID) {
			return ErrNotFound
		}
		lists := tx.Lists(s.resource, gameID)

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = nextDefaultName("My List", regularTitles(lists))
		}
		if err := checkTitle(title, lists, 0); err != nil {
			return err
		}

		agg, ok := aggregateOf(lists)
		if !ok {
			agg = domain.List{GameID: gameID, Aggregate: true, Title: domain.AggregateListTitle}
		}
		tx.PutList(s.resource, &agg)

		list := domain.List{GameID: gameID, Title: title, AggregateListID: &agg.ID}
		tx.PutList(s.resource, &list)

		out = []domain.List{agg, list}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ListService) Update(ctx context.Context, userID string, listID int, req *domain.UpdateListRequest) (*domain.List, error) {
	var list domain.List
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		found, err := s.ownedList(tx, userID, listID)
		if err != nil {
			return err
		}
		list = found

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return invalid("Title can't be blank")
			}
			if err := checkTitle(title, tx.Lists(s.resource, list.GameID), list.ID); err != nil {
				return err
			}
			list.Title = title
		}

		tx.PutList(s.resource, &list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Destroy removes a regular list and its contribution to the aggregate.
// Removing the last regular list removes the aggregate too, and its id is
// reported in Deleted.
func (s *ListService) Destroy(ctx context.Context, userID string, listID int) (*domain.ListDestroyed, error) {
	var out domain.ListDestroyed
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		list, err := s.ownedList(tx, userID, listID)
		if err != nil {
			return err
		}
		tx.DeleteList(s.resource, list.ID)
		out.Deleted = []int{list.ID}

		lists := tx.Lists(s.resource, list.GameID)
		agg, ok := aggregateOf(lists)
		if !ok {
			return nil
		}

		if len(lists) == 1 {
			tx.DeleteList(s.resource, agg.ID)
			out.Deleted = append(out.Deleted, agg.ID)
			return nil
		}

		for _, item := range list.Items {
			if idx := indexByDescription(agg.Items, item.Description); idx >= 0 {
				keep := s.notesOf(tx, list.GameID, item.Description, 0)
				agg.Items = subtractContribution(agg.Items, idx, item, keep)
			}
		}
		tx.PutList(s.resource, &agg)
		out.Aggregate = &agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateItem adds an item to a regular list and returns [aggregateItem,
// item]. An item whose description matches one already on the list is
// combined with it: quantities add and notes are appended.
func (s *ListService) CreateItem(ctx context.Context, userID string, listID int, req *domain.CreateItemRequest) ([]domain.Item, error) {
	var out []domain.Item
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		list, err := s.ownedList(tx, userID, listID)
		if err != nil {
			return err
		}

		description := strings.TrimSpace(req.Description)
		if description == "" {
			return invalid("Description can't be blank")
		}

		agg, ok := aggregateOf(tx.Lists(s.resource, list.GameID))
		if !ok {
			return ErrNotFound
		}

		item := combine(list.Items, domain.Item{ListID: list.ID, Description: description}, req)
		if err := tx.PutItem(s.resource, &item); err != nil {
			return err
		}

		aggItem := combine(agg.Items, domain.Item{ListID: agg.ID, Description: description}, req)
		if err := tx.PutItem(s.resource, &aggItem); err != nil {
			return err
		}

		if req.UnitWeight != nil {
			if err := s.propagateUnitWeight(tx, list.GameID, description, req.UnitWeight); err != nil {
				return err
			}
			item.UnitWeight, aggItem.UnitWeight = req.UnitWeight, req.UnitWeight
		}

		out = []domain.Item{aggItem, item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem changes quantity, unit weight or notes of a regular item and
// applies the same change to the aggregate. It returns [aggregateItem,
// item].
func (s *ListService) UpdateItem(ctx context.Context, userID string, itemID int, req *domain.UpdateItemRequest) ([]domain.Item, error) {
	var out []domain.Item
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		item, list, agg, err := s.ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		aggIdx := indexByDescription(agg.Items, item.Description)
		if aggIdx < 0 {
			return ErrNotFound
		}
		aggItem := agg.Items[aggIdx]

		if req.Quantity != nil {
			aggItem.Quantity += *req.Quantity - item.Quantity
			item.Quantity = *req.Quantity
		}
		if req.Notes != nil {
			keep := s.notesOf(tx, list.GameID, item.Description, item.ID)
			aggItem.Notes = removeNotes(aggItem.Notes, item.Notes, keep)
			aggItem.Notes = appendNotes(aggItem.Notes, req.Notes)
			item.Notes = emptyToNil(req.Notes)
		}

		if err := tx.PutItem(s.resource, &item); err != nil {
			return err
		}
		if err := tx.PutItem(s.resource, &aggItem); err != nil {
			return err
		}

		if req.UnitWeight != nil {
			if err := s.propagateUnitWeight(tx, list.GameID, item.Description, req.UnitWeight); err != nil {
				return err
			}
			item.UnitWeight, aggItem.UnitWeight = req.UnitWeight, req.UnitWeight
		}

		out = []domain.Item{aggItem, item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DestroyItem deletes a regular item and returns the aggregate's remaining
// record for it (nil when fully consumed) and the regular remainder,
// which is always nil.
func (s *ListService) DestroyItem(ctx context.Context, userID string, itemID int) (*domain.ItemDestroyed, error) {
	var out domain.ItemDestroyed
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		item, list, agg, err := s.ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		tx.DeleteItem(s.resource, item.ID)

		idx := indexByDescription(agg.Items, item.Description)
		if idx < 0 {
			return nil
		}
		aggItem := agg.Items[idx]
		keep := s.notesOf(tx, list.GameID, item.Description, item.ID)
		agg.Items = subtractContribution(agg.Items, idx, item, keep)
		tx.PutList(s.resource, &agg)

		if remaining := indexByID(agg.Items, aggItem.ID); remaining >= 0 {
			out.Aggregate = &agg.Items[remaining]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ListService) ownedList(tx repository.InventoryTx, userID string, listID int) (domain.List, error) {
	list, ok := tx.FindList(s.resource, listID)
	if !ok || !ownsGame(tx, userID, list.GameID) {
		return domain.List{}, ErrNotFound
	}
	if list.Aggregate {
		return domain.List{}, ErrAggregateImmutable
	}
	return list, nil
}

func (s *ListService) ownedItem(tx repository.InventoryTx, userID string, itemID int) (domain.Item, domain.List, domain.List, error) {
	item, ok := tx.FindItem(s.resource, itemID)
	if !ok {
		return domain.Item{}, domain.List{}, domain.List{}, ErrNotFound
	}
	list, err := s.ownedList(tx, userID, item.ListID)
	if err != nil {
		return domain.Item{}, domain.List{}, domain.List{}, err
	}
	agg, ok := aggregateOf(tx.Lists(s.resource, list.GameID))
	if !ok {
		return domain.Item{}, domain.List{}, domain.List{}, ErrNotFound
	}
	return item, list, agg, nil
}

// propagateUnitWeight sets the unit weight of every item in the game that
// shares description, aggregate included.
func (s *ListService) propagateUnitWeight(tx repository.InventoryTx, gameID int, description string, weight *float64) error {
	for _, l := range tx.Lists(s.resource, gameID) {
		for _, it := range l.Items {
			if !domain.SameDescription(it.Description, description) {
				continue
			}
			w := *weight
			it.UnitWeight = &w
			if err := tx.PutItem(s.resource, &it); err != nil {
				return err
			}
		}
	}
	return nil
}

// notesOf collects the note segments still carried by the game's regular
// items matching description, leaving out the item with id except.
func (s *ListService) notesOf(tx repository.InventoryTx, gameID int, description string, except int) []string {
	var notes []string
	for _, l := range tx.Lists(s.resource, gameID) {
		if l.Aggregate {
			continue
		}
		for _, it := range l.Items {
			if it.ID == except || it.Notes == nil || !domain.SameDescription(it.Description, description) {
				continue
			}
			notes = append(notes, strings.Split(*it.Notes, notesSeparator)...)
		}
	}
	return notes
}

func ownsGame(tx repository.InventoryTx, userID string, gameID int) bool {
	game, ok := tx.FindGame(gameID)
	return ok && game.UserID == userID
}

func checkTitle(title string, lists []domain.List, exceptID int) error {
	if strings.EqualFold(title, domain.AggregateListTitle) {
		return invalid(`Title cannot be "` + domain.AggregateListTitle + `"`)
	}
	for _, l := range lists {
		if l.ID != exceptID && !l.Aggregate && strings.EqualFold(l.Title, title) {
			return invalid("Title must be unique per game")
		}
	}
	return nil
}

func regularTitles(lists []domain.List) []string {
	var titles []string
	for _, l := range lists {
		if !l.Aggregate {
			titles = append(titles, l.Title)
		}
	}
	return titles
}

func aggregateOf(lists []domain.List) (domain.List, bool) {
	idx := slices.IndexFunc(lists, func(l domain.List) bool { return l.Aggregate })
	if idx < 0 {
		return domain.List{}, false
	}
	return lists[idx], true
}

func indexByDescription(items []domain.Item, description string) int {
	return slices.IndexFunc(items, func(it domain.Item) bool { return domain.SameDescription(it.Description, description) })
}

func indexByID(items []domain.Item, id int) int {
	return slices.IndexFunc(items, func(it domain.Item) bool { return it.ID == id })
}

// combine returns the existing item matching fresh's description with
// req added to it, or fresh filled from req when there is none.
func combine(items []domain.Item, fresh domain.Item, req *domain.CreateItemRequest) domain.Item {
	if idx := indexByDescription(items, fresh.Description); idx >= 0 {
		item := items[idx]
		item.Quantity += req.Quantity
		item.Notes = appendNotes(item.Notes, req.Notes)
		return item
	}

	fresh.Quantity = req.Quantity
	fresh.UnitWeight = req.UnitWeight
	fresh.Notes = emptyToNil(req.Notes)
	return fresh
}

// subtractContribution removes item's quantity and notes from items[idx],
// dropping the record once its quantity is used up. Notes listed in keep
// are still contributed by other items and stay.
func subtractContribution(items []domain.Item, idx int, item domain.Item, keep []string) []domain.Item {
	items = slices.Clone(items)
	items[idx].Quantity -= item.Quantity
	if items[idx].Quantity <= 0 {
		return slices.Delete(items, idx, idx+1)
	}
	items[idx].Notes = removeNotes(items[idx].Notes, item.Notes, keep)
	return items
}

func appendNotes(existing, added *string) *string {
	added = emptyToNil(added)
	switch {
	case added == nil:
		return existing
	case existing == nil || *existing == "":
		v := *added
		return &v
	case slices.Contains(strings.Split(*existing, notesSeparator), *added):
		return existing
	default:
		v := *existing + notesSeparator + *added
		return &v
	}
}

// removeNotes drops each segment of removed from existing unless keep
// still holds it.
func removeNotes(existing, removed *string, keep []string) *string {
	if existing == nil || removed == nil {
		return existing
	}
	segments := strings.Split(*existing, notesSeparator)
	for _, r := range strings.Split(*removed, notesSeparator) {
		if slices.Contains(keep, r) {
			continue
		}
		if idx := slices.Index(segments, r); idx >= 0 {
			segments = slices.Delete(segments, idx, idx+1)
		}
	}
	if len(segments) == 0 {
		return nil
	}
	v := strings.Join(segments, notesSeparator)
	return &v
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
