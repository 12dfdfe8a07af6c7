package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-sync/internal/apierror"
	"sim-sync/internal/domain"
	"sim-sync/internal/orchestrator"
	"sim-sync/internal/repository"
	"sim-sync/internal/transport"
)

type staticCredentials struct{}

func (staticCredentials) CurrentToken() string                         { return "token" }
func (staticCredentials) RefreshToken(context.Context) (string, error) { return "token", nil }
func (staticCredentials) SignOut()                                     {}

type reply struct {
	status int
	body   interface{}
}

// fakeListAPI answers every call with the next queued reply for its
// operation and records the calls made.
type fakeListAPI struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []string
}

func newFakeListAPI() *fakeListAPI {
	return &fakeListAPI{replies: make(map[string][]reply)}
}

func (f *fakeListAPI) queue(op string, status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[op] = append(f.replies[op], reply{status: status, body: body})
}

func (f *fakeListAPI) respond(op string) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	queued := f.replies[op]
	if len(queued) == 0 {
		return nil, errors.New("no reply queued for " + op)
	}
	r := queued[0]
	f.replies[op] = queued[1:]

	var data []byte
	switch b := r.body.(type) {
	case nil:
	case string:
		data = []byte(b)
	default:
		data, _ = json.Marshal(b)
	}
	return &transport.Response{StatusCode: r.status, Body: data}, nil
}

func (f *fakeListAPI) Resources() transport.Resources { return transport.ShoppingLists }

func (f *fakeListAPI) ListLists(context.Context, int, string) (*transport.Response, error) {
	return f.respond("list")
}

func (f *fakeListAPI) CreateList(context.Context, int, *domain.CreateListRequest, string) (*transport.Response, error) {
	return f.respond("create")
}

func (f *fakeListAPI) UpdateList(context.Context, int, *domain.UpdateListRequest, string) (*transport.Response, error) {
	return f.respond("update")
}

func (f *fakeListAPI) DestroyList(context.Context, int, string) (*transport.Response, error) {
	return f.respond("destroy")
}

func (f *fakeListAPI) CreateItem(context.Context, int, *domain.CreateItemRequest, string) (*transport.Response, error) {
	return f.respond("createItem")
}

func (f *fakeListAPI) UpdateItem(context.Context, int, *domain.UpdateItemRequest, string) (*transport.Response, error) {
	return f.respond("updateItem")
}

func (f *fakeListAPI) DestroyItem(context.Context, int, string) (*transport.Response, error) {
	return f.respond("destroyItem")
}

type result struct {
	state State
	err   *apierror.Error
	calls int
}

func (r *result) callbacks() Callbacks[State] {
	return Callbacks[State]{
		OnSuccess: func(s State) { r.state = s; r.calls++ },
		OnError:   func(err *apierror.Error) { r.err = err; r.calls++ },
	}
}

func strPtr(s string) *string { return &s }

func newCollection(t *testing.T, api *fakeListAPI, opts ...CollectionOption) *CollectionStore {
	t.Helper()
	o := orchestrator.New(staticCredentials{}, zerolog.Nop())
	return NewCollectionStore(api, o, zerolog.Nop(), opts...)
}

func seededLists() []domain.List {
	return []domain.List{
		{ID: 1, GameID: 32, Aggregate: true, Title: domain.AggregateListTitle, Items: []domain.Item{
			{ID: 5, ListID: 1, Description: "Ebony sword", Quantity: 2, Notes: strPtr("notes 1 -- notes 2")},
		}},
		{ID: 2, GameID: 32, Title: "Lakeview Manor", Items: []domain.Item{
			{ID: 8, ListID: 2, Description: "Ebony sword", Quantity: 1, Notes: strPtr("notes 1")},
		}},
		{ID: 3, GameID: 32, Title: "Breezehome", Items: []domain.Item{
			{ID: 10, ListID: 3, Description: "Ebony sword", Quantity: 1, Notes: strPtr("notes 2")},
		}},
	}
}

func loadSeeded(t *testing.T, api *fakeListAPI, s *CollectionStore) {
	t.Helper()
	api.queue("list", 200, seededLists())
	var r result
	s.Load(context.Background(), 32, r.callbacks())
	require.Nil(t, r.err)
	require.Equal(t, domain.Done, s.Snapshot().Loading)
}

func TestCollectionStore_Load(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	assert.Equal(t, domain.Loading, s.Snapshot().Loading)

	loadSeeded(t, api, s)

	state := s.Snapshot()
	assert.Equal(t, 32, state.GameID)
	assert.Equal(t, "shopping_lists", state.Resource)
	assert.Equal(t, seededLists(), state.Lists)
}

func TestCollectionStore_LoadErrorEmptiesLists(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	loadSeeded(t, api, s)

	api.queue("list", 404, nil)
	var r result
	s.Load(context.Background(), 32, r.callbacks())

	require.NotNil(t, r.err)
	assert.Equal(t, apierror.NotFound, r.err.Kind)
	assert.Equal(t, 1, r.calls)
	state := s.Snapshot()
	assert.Equal(t, domain.Error, state.Loading)
	assert.Empty(t, state.Lists)
}

func TestCollectionStore_LoadMalformedBody(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)

	api.queue("list", 200, `{"not":"an array"}`)
	var r result
	s.Load(context.Background(), 32, r.callbacks())

	require.NotNil(t, r.err)
	assert.Equal(t, apierror.MalformedResponse, r.err.Kind)
	assert.Equal(t, domain.Error, s.Snapshot().Loading)
}

// Scenario A: a brand new item lands on both its list and the aggregate.
func TestCollectionStore_CreateNewItem(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	loadSeeded(t, api, s)

	api.queue("createItem", 201, []domain.Item{
		{ID: 11, ListID: 1, Description: "Dwarven metal ingot", Quantity: 10},
		{ID: 12, ListID: 2, Description: "Dwarven metal ingot", Quantity: 10},
	})

	var r result
	s.Mutate(context.Background(), CreateItem{ListID: 2, CreateItemRequest: domain.CreateItemRequest{Description: "Dwarven metal ingot", Quantity: 10}}, r.callbacks())

	require.Nil(t, r.err)
	lists := s.Snapshot().Lists
	require.Len(t, lists[0].Items, 2)
	assert.Equal(t, "Dwarven metal ingot", lists[0].Items[1].Description)
	assert.Equal(t, 10, lists[0].Items[1].Quantity)
	require.Len(t, lists[1].Items, 2)
	assert.Equal(t, 12, lists[1].Items[1].ID)
	assert.Equal(t, 10, lists[1].Items[1].Quantity)
	assert.Len(t, lists[2].Items, 1)
}

// Scenario B: the combined item replaces the existing records in place.
func TestCollectionStore_CreateMatchingItem(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	loadSeeded(t, api, s)

	api.queue("createItem", 201, []domain.Item{
		{ID: 5, ListID: 1, Description: "Ebony sword", Quantity: 4, Notes: strPtr("notes 1 -- notes 2 -- notes 3")},
		{ID: 8, ListID: 2, Description: "Ebony sword", Quantity: 3, Notes: strPtr("notes 1 -- notes 3")},
	})

	var r result
	s.Mutate(context.Background(), CreateItem{ListID: 2, CreateItemRequest: domain.CreateItemRequest{Description: "Ebony sword", Quantity: 2, Notes: strPtr("notes 3")}}, r.callbacks())

	require.Nil(t, r.err)
	lists := r.state.Lists
	require.Len(t, lists[0].Items, 1)
	assert.Equal(t, 4, lists[0].Items[0].Quantity)
	assert.Equal(t, "notes 1 -- notes 2 -- notes 3", *lists[0].Items[0].Notes)
	require.Len(t, lists[1].Items, 1)
	assert.Equal(t, 3, lists[1].Items[0].Quantity)
	assert.Equal(t, "notes 1 -- notes 3", *lists[1].Items[0].Notes)
}

func TestCollectionStore_ListLifecycle(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)

	api.queue("list", 200, []domain.List{})
	s.Load(context.Background(), 32, Callbacks[State]{})
	assert.Empty(t, s.Snapshot().Lists)

	agg := domain.List{ID: 1, GameID: 32, Aggregate: true, Title: domain.AggregateListTitle, Items: []domain.Item{}}
	first := domain.List{ID: 2, GameID: 32, Title: "My List 1", Items: []domain.Item{}}
	second := domain.List{ID: 3, GameID: 32, Title: "My List 2", Items: []domain.Item{}}

	api.queue("create", 201, []domain.List{agg, first})
	api.queue("create", 201, []domain.List{agg, second})

	var r result
	s.Mutate(context.Background(), CreateList{}, r.callbacks())
	require.Nil(t, r.err)
	s.Mutate(context.Background(), CreateList{}, r.callbacks())
	require.Nil(t, r.err)

	ids := func() []int {
		var out []int
		for _, l := range s.Snapshot().Lists {
			out = append(out, l.ID)
		}
		return out
	}
	assert.Equal(t, []int{1, 3, 2}, ids())

	renamed := second
	renamed.Title = "Honeyside"
	api.queue("update", 200, renamed)
	s.Mutate(context.Background(), UpdateList{ListID: 3, UpdateListRequest: domain.UpdateListRequest{Title: strPtr("Honeyside")}}, r.callbacks())
	require.Nil(t, r.err)
	assert.Equal(t, "Honeyside", s.Snapshot().Lists[1].Title)

	api.queue("destroy", 200, map[string]interface{}{"aggregate": agg, "deleted": []int{3}})
	s.Mutate(context.Background(), DestroyList{ListID: 3}, r.callbacks())
	require.Nil(t, r.err)
	assert.Equal(t, []int{1, 2}, ids())

	api.queue("destroy", 200, map[string]interface{}{"aggregate": nil, "deleted": []int{2, 1}})
	s.Mutate(context.Background(), DestroyList{ListID: 2}, r.callbacks())
	require.Nil(t, r.err)
	assert.Empty(t, s.Snapshot().Lists)
}

func TestCollectionStore_MutationErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		wantKind apierror.Kind
	}{
		{name: "aggregate edit", status: 405, wantKind: apierror.MethodNotAllowed},
		{name: "validation", status: 422, body: `{"errors":["Title must be unique per game"]}`, wantKind: apierror.Unprocessable},
		{name: "success with wrong shape", status: 200, body: `[]`, wantKind: apierror.MalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeListAPI()
			s := newCollection(t, api)
			loadSeeded(t, api, s)

			api.queue("update", tt.status, tt.body)
			var r result
			s.Mutate(context.Background(), UpdateList{ListID: 1}, r.callbacks())

			assert.Equal(t, 1, r.calls)
			require.NotNil(t, r.err)
			assert.Equal(t, tt.wantKind, r.err.Kind)
			assert.Equal(t, seededLists(), s.Snapshot().Lists)
		})
	}
}

func TestCollectionStore_CreateListWithoutGame(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)

	var r result
	s.Mutate(context.Background(), CreateList{}, r.callbacks())

	require.NotNil(t, r.err)
	assert.ErrorIs(t, r.err, ErrNoActiveGame)
	assert.Empty(t, api.calls)
}

func TestCollectionStore_DestroyLastItem(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)

	api.queue("list", 200, []domain.List{
		{ID: 1, GameID: 32, Aggregate: true, Items: []domain.Item{{ID: 5, ListID: 1, Description: "Ebony sword", Quantity: 1}}},
		{ID: 2, GameID: 32, Items: []domain.Item{{ID: 9, ListID: 2, Description: "Ebony sword", Quantity: 1}}},
	})
	s.Load(context.Background(), 32, Callbacks[State]{})

	api.queue("destroyItem", 200, `[null,null]`)
	var r result
	s.Mutate(context.Background(), DestroyItem{ItemID: 9}, r.callbacks())

	require.Nil(t, r.err)
	for _, l := range s.Snapshot().Lists {
		assert.Empty(t, l.Items, "list %d", l.ID)
	}
}

func TestCollectionStore_ResponseForStaleGameIsNotApplied(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	loadSeeded(t, api, s)

	other := []domain.List{{ID: 40, GameID: 51, Aggregate: true}, {ID: 41, GameID: 51}}
	api.queue("list", 200, other)

	// The game switches while the create is in flight.
	perf := &switchingPerformer{inner: orchestrator.New(staticCredentials{}, zerolog.Nop()), before: func() {
		s.Load(context.Background(), 51, Callbacks[State]{})
	}}
	s.perf = perf

	api.queue("createItem", 201, []domain.Item{{ID: 99, ListID: 2, Description: "Iron ore", Quantity: 1}})
	var r result
	s.Mutate(context.Background(), CreateItem{ListID: 2, CreateItemRequest: domain.CreateItemRequest{Description: "Iron ore", Quantity: 1}}, r.callbacks())

	require.Nil(t, r.err)
	assert.Equal(t, 51, r.state.GameID)
	assert.Equal(t, other, s.Snapshot().Lists)
}

// switchingPerformer runs before() ahead of the first mutation it sees.
type switchingPerformer struct {
	inner  Performer
	before func()
	done   bool
}

func (p *switchingPerformer) Perform(ctx context.Context, intent orchestrator.Intent, call orchestrator.Call, cb orchestrator.Callbacks, opts ...orchestrator.PerformOption) {
	if !p.done && intent.Method != "get" {
		p.done = true
		p.before()
	}
	p.inner.Perform(ctx, intent, call, cb, opts...)
}

func TestCollectionStore_Subscribe(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)

	var seen []domain.LoadingState
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st.Loading) })

	loadSeeded(t, api, s)
	assert.Equal(t, []domain.LoadingState{domain.Loading, domain.Done}, seen)

	unsubscribe()
	unsubscribe()
	loadSeeded(t, api, s)
	assert.Len(t, seen, 2)
}

func TestCollectionStore_SnapshotIsACopy(t *testing.T) {
	api := newFakeListAPI()
	s := newCollection(t, api)
	loadSeeded(t, api, s)

	state := s.Snapshot()
	state.Lists[1].Items[0].Quantity = 99
	state.Lists[1].Title = "changed"

	assert.Equal(t, seededLists(), s.Snapshot().Lists)
}

type memorySnapshots struct {
	mu    sync.Mutex
	saved map[string]domain.Snapshot
}

func (m *memorySnapshots) Save(_ context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[domain.SnapshotKey(snap.Resource, snap.GameID)] = *snap
	return nil
}

func (m *memorySnapshots) Find(_ context.Context, resource string, gameID int) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.saved[domain.SnapshotKey(resource, gameID)]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (m *memorySnapshots) Delete(_ context.Context, resource string, gameID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, domain.SnapshotKey(resource, gameID))
	return nil
}

func (m *memorySnapshots) Close() error { return nil }

func TestCollectionStore_Cache(t *testing.T) {
	api := newFakeListAPI()
	cache := &memorySnapshots{saved: make(map[string]domain.Snapshot)}

	uncached := newCollection(t, newFakeListAPI())
	_, err := uncached.Cached(context.Background(), 32)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	s := newCollection(t, api, WithCache(cache))
	loadSeeded(t, api, s)

	snap, err := s.Cached(context.Background(), 32)
	require.NoError(t, err)
	assert.Equal(t, seededLists(), snap.Lists)

	api.queue("destroyItem", 200, []*domain.Item{
		{ID: 5, ListID: 1, Description: "Ebony sword", Quantity: 1, Notes: strPtr("notes 2")},
		nil,
	})
	s.Mutate(context.Background(), DestroyItem{ItemID: 8}, Callbacks[State]{})

	snap, err = s.Cached(context.Background(), 32)
	require.NoError(t, err)
	assert.Empty(t, snap.Lists[1].Items)
	assert.Equal(t, 1, snap.Lists[0].Items[0].Quantity)
}
