package domain

// ListCreatedKind tells the merge engine whether the server created the
// aggregate list together with the new list.
type ListCreatedKind int

const (
	ListAdded ListCreatedKind = iota
	FirstListInScope
)

func (k ListCreatedKind) String() string {
	if k == FirstListInScope {
		return "first_list_in_scope"
	}
	return "list_added"
}

// ListCreated is the decoded response to a list creation.
type ListCreated struct {
	Kind      ListCreatedKind
	Aggregate List
	List      List
}

// ListDestroyed is the decoded response to a list deletion. A nil
// Aggregate means the aggregate list was deleted too.
type ListDestroyed struct {
	Aggregate *List `json:"aggregate"`
	Deleted   []int `json:"deleted"`
}

// ItemsChanged carries the authoritative item records returned by an item
// create or update.
type ItemsChanged struct {
	Items []Item
}

// ItemDestroyed is the decoded response to an item deletion. Aggregate is
// the aggregate list's remaining record for the logical item and Regular
// the owning list's remaining record; nil means fully removed.
type ItemDestroyed struct {
	Aggregate *Item
	Regular   *Item
}
