// Package merge splices authoritative server records into a snapshot of a
// game's lists. Every function is pure: the input snapshot is never
// modified and the returned snapshot shares no item slices that were
// changed. The server does all aggregation math; these functions only
// re-file what it returned.
package merge

import (
	"slices"

	"sim-sync/internal/domain"
)

// ApplyListCreated adds a newly created list. When the server created the
// aggregate list at the same time the snapshot is replaced outright;
// otherwise the aggregate is replaced at index 0 and the new list is
// inserted right after it.
func ApplyListCreated(snapshot []domain.List, delta domain.ListCreated) []domain.List {
	if delta.Kind == domain.FirstListInScope {
		return []domain.List{delta.Aggregate.Clone(), delta.List.Clone()}
	}

	next := make([]domain.List, 0, len(snapshot)+1)
	next = append(next, delta.Aggregate.Clone(), delta.List.Clone())
	for _, l := range snapshot {
		if l.ID == delta.Aggregate.ID || l.ID == delta.List.ID {
			continue
		}
		next = append(next, l)
	}
	return next
}

// ApplyListUpdated replaces the list with the given id. Title edits never
// affect aggregation so no other list changes.
func ApplyListUpdated(snapshot []domain.List, listID int, updated domain.List) []domain.List {
	idx := indexOfList(snapshot, listID)
	if idx < 0 {
		return slices.Clone(snapshot)
	}

	next := slices.Clone(snapshot)
	next[idx] = updated.Clone()
	return next
}

// ApplyListDestroyed drops every deleted list and refreshes the aggregate.
// A nil aggregate means the server deleted it along with the last regular
// list.
func ApplyListDestroyed(snapshot []domain.List, delta domain.ListDestroyed) []domain.List {
	next := make([]domain.List, 0, len(snapshot))
	for _, l := range snapshot {
		if slices.Contains(delta.Deleted, l.ID) {
			continue
		}
		if l.Aggregate && delta.Aggregate == nil {
			continue
		}
		next = append(next, l)
	}

	if delta.Aggregate == nil {
		return next
	}

	if idx := indexOfList(next, delta.Aggregate.ID); idx >= 0 {
		next[idx] = delta.Aggregate.Clone()
		return next
	}
	return slices.Insert(next, 0, delta.Aggregate.Clone())
}

// ApplyItemCreated files each returned item into its owning list, updating
// the item with the same id or appending it. This covers both a brand new
// logical item and one merged into an existing record.
func ApplyItemCreated(snapshot []domain.List, delta domain.ItemsChanged) []domain.List {
	next := slices.Clone(snapshot)
	for _, item := range delta.Items {
		next = upsertItem(next, item, true)
	}
	return next
}

// ApplyItemUpdated replaces each returned item by id. An update never
// introduces a new logical item, so unknown ids are ignored.
func ApplyItemUpdated(snapshot []domain.List, delta domain.ItemsChanged) []domain.List {
	next := slices.Clone(snapshot)
	for _, item := range delta.Items {
		next = upsertItem(next, item, false)
	}
	return next
}

// ApplyItemDestroyed removes the destroyed item's contribution. The
// description of the item with itemID decides which records belong to the
// same logical item; any of them the server did not return are removed
// from the owning list and from the aggregate.
func ApplyItemDestroyed(snapshot []domain.List, itemID int, delta domain.ItemDestroyed) []domain.List {
	next := slices.Clone(snapshot)

	listIdx, item, found := findItem(next, itemID)
	if !found {
		if delta.Aggregate != nil {
			next = upsertItem(next, *delta.Aggregate, true)
		}
		if delta.Regular != nil {
			next = upsertItem(next, *delta.Regular, true)
		}
		return next
	}

	gameID := next[listIdx].GameID
	next[listIdx] = replaceLogicalItem(next[listIdx], item, delta.Regular)

	if aggIdx := indexOfAggregate(next, gameID); aggIdx >= 0 && aggIdx != listIdx {
		next[aggIdx] = replaceLogicalItem(next[aggIdx], item, delta.Aggregate)
	}
	return next
}

// replaceLogicalItem drops every item on l matching destroyed (by id or
// description) other than remaining, and files remaining if present.
func replaceLogicalItem(l domain.List, destroyed domain.Item, remaining *domain.Item) domain.List {
	l = l.Clone()
	l.Items = slices.DeleteFunc(l.Items, func(it domain.Item) bool {
		if remaining != nil && it.ID == remaining.ID {
			return false
		}
		return it.ID == destroyed.ID || domain.SameDescription(it.Description, destroyed.Description)
	})

	if remaining == nil {
		return l
	}
	if idx := indexOfItem(l.Items, remaining.ID); idx >= 0 {
		l.Items[idx] = *remaining
	} else {
		l.Items = append(l.Items, *remaining)
	}
	return l
}

func upsertItem(lists []domain.List, item domain.Item, appendMissing bool) []domain.List {
	listIdx := indexOfList(lists, item.ListID)
	if listIdx < 0 {
		return lists
	}

	l := lists[listIdx].Clone()
	if idx := indexOfItem(l.Items, item.ID); idx >= 0 {
		l.Items[idx] = item
	} else if appendMissing {
		l.Items = append(l.Items, item)
	} else {
		return lists
	}

	lists[listIdx] = l
	return lists
}

func findItem(lists []domain.List, itemID int) (int, domain.Item, bool) {
	for i, l := range lists {
		if l.Aggregate {
			continue
		}
		if idx := indexOfItem(l.Items, itemID); idx >= 0 {
			return i, l.Items[idx], true
		}
	}
	return -1, domain.Item{}, false
}

func indexOfList(lists []domain.List, id int) int {
	return slices.IndexFunc(lists, func(l domain.List) bool { return l.ID == id })
}

func indexOfItem(items []domain.Item, id int) int {
	return slices.IndexFunc(items, func(it domain.Item) bool { return it.ID == id })
}

func indexOfAggregate(lists []domain.List, gameID int) int {
	return slices.IndexFunc(lists, func(l domain.List) bool { return l.Aggregate && l.GameID == gameID })
}

// AggregateOf returns the aggregate list in snapshot, if any.
func AggregateOf(snapshot []domain.List) (domain.List, bool) {
	idx := slices.IndexFunc(snapshot, func(l domain.List) bool { return l.Aggregate })
	if idx < 0 {
		return domain.List{}, false
	}
	return snapshot[idx], true
}
