package domain

import (
	"strings"
	"time"
)

// AggregateListTitle is the title the server gives every aggregate list.
const AggregateListTitle = "All Items"

// List is a shopping or wish list. Exactly one list per game is the
// aggregate once any regular list exists; the server maintains it.
type List struct {
	ID              int       `json:"id"`
	GameID          int       `json:"game_id"`
	AggregateListID *int      `json:"aggregate_list_id"`
	Aggregate       bool      `json:"aggregate"`
	Title           string    `json:"title"`
	Items           []Item    `json:"list_items"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Item belongs to exactly one list. Items on different lists are the same
// logical item when their descriptions match (see SameDescription).
type Item struct {
	ID          int      `json:"id"`
	ListID      int      `json:"list_id"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	UnitWeight  *float64 `json:"unit_weight"`
	Notes       *string  `json:"notes"`
}

type CreateListRequest struct {
	Title string `json:"title" validate:"max=100,title_chars"`
}

type UpdateListRequest struct {
	Title *string `json:"title" validate:"omitempty,max=100,title_chars"`
}

type CreateItemRequest struct {
	Description string   `json:"description" validate:"required,max=200"`
	Quantity    int      `json:"quantity" validate:"required,gt=0"`
	UnitWeight  *float64 `json:"unit_weight" validate:"omitempty,gte=0"`
	Notes       *string  `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateItemRequest struct {
	Quantity   *int     `json:"quantity" validate:"omitempty,gt=0"`
	UnitWeight *float64 `json:"unit_weight" validate:"omitempty,gte=0"`
	Notes      *string  `json:"notes" validate:"omitempty,max=1000"`
}

// SameDescription reports whether two descriptions name the same logical
// item: equal after trimming, ignoring case.
func SameDescription(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Clone returns a copy of the list whose item slice can be modified
// without affecting l.
func (l List) Clone() List {
	if l.Items != nil {
		items := make([]Item, len(l.Items))
		copy(items, l.Items)
		l.Items = items
	}
	return l
}

// CloneLists copies a snapshot deeply enough that no list or item slice is
// shared with the input.
func CloneLists(lists []List) []List {
	if lists == nil {
		return nil
	}
	out := make([]List, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}
