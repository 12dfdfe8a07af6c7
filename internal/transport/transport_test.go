package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-sync/internal/domain"
)

type recordedRequest struct {
	method    string
	path      string
	auth      string
	requestID string
	body      string
}

func newRecordingServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method:    r.Method,
			path:      r.URL.Path,
			auth:      r.Header.Get("Authorization"),
			requestID: r.Header.Get("X-Request-ID"),
			body:      string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestClient_Routes(t *testing.T) {
	quantity := 2
	title := "Breezehome"

	tests := []struct {
		name       string
		resources  Resources
		call       func(c *Client, ctx context.Context) (*Response, error)
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name:       "list games",
			resources:  ShoppingLists,
			call:       func(c *Client, ctx context.Context) (*Response, error) { return c.ListGames(ctx, "tok") },
			wantMethod: http.MethodGet,
			wantPath:   "/games",
		},
		{
			name:      "create list",
			resources: ShoppingLists,
			call: func(c *Client, ctx context.Context) (*Response, error) {
				return c.CreateList(ctx, 32, &domain.CreateListRequest{Title: "Lakeview Manor"}, "tok")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/games/32/shopping_lists",
			wantBody:   `{"title":"Lakeview Manor"}`,
		},
		{
			name:      "update wish list",
			resources: WishLists,
			call: func(c *Client, ctx context.Context) (*Response, error) {
				return c.UpdateList(ctx, 4, &domain.UpdateListRequest{Title: &title}, "tok")
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/wish_lists/4",
			wantBody:   `{"title":"Breezehome"}`,
		},
		{
			name:       "destroy list",
			resources:  ShoppingLists,
			call:       func(c *Client, ctx context.Context) (*Response, error) { return c.DestroyList(ctx, 2, "tok") },
			wantMethod: http.MethodDelete,
			wantPath:   "/shopping_lists/2",
		},
		{
			name:      "create item",
			resources: ShoppingLists,
			call: func(c *Client, ctx context.Context) (*Response, error) {
				return c.CreateItem(ctx, 2, &domain.CreateItemRequest{Description: "Ebony sword", Quantity: 1}, "tok")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/shopping_lists/2/shopping_list_items",
			wantBody:   `{"description":"Ebony sword","quantity":1,"unit_weight":null,"notes":null}`,
		},
		{
			name:      "update item",
			resources: WishLists,
			call: func(c *Client, ctx context.Context) (*Response, error) {
				return c.UpdateItem(ctx, 9, &domain.UpdateItemRequest{Quantity: &quantity}, "tok")
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/wish_list_items/9",
			wantBody:   `{"quantity":2,"unit_weight":null,"notes":null}`,
		},
		{
			name:       "destroy item",
			resources:  ShoppingLists,
			call:       func(c *Client, ctx context.Context) (*Response, error) { return c.DestroyItem(ctx, 9, "tok") },
			wantMethod: http.MethodDelete,
			wantPath:   "/shopping_list_items/9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := newRecordingServer(t, http.StatusOK, `[]`)
			c := NewClient(srv.URL+"/", tt.resources, 5*time.Second, zerolog.Nop())
			ctx := WithRequestID(context.Background(), "req-1")

			resp, err := tt.call(c, ctx)

			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			require.Len(t, *requests, 1)
			got := (*requests)[0]
			assert.Equal(t, tt.wantMethod, got.method)
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, "Bearer tok", got.auth)
			assert.Equal(t, "req-1", got.requestID)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, got.body)
			}
		})
	}
}

func TestClient_NonSuccessIsAResponse(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusUnprocessableEntity, `{"errors":["Title must be unique per game"]}`)
	c := NewClient(srv.URL, ShoppingLists, time.Second, zerolog.Nop())

	resp, err := c.CreateList(context.Background(), 32, &domain.CreateListRequest{Title: "Dup"}, "tok")

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"errors":["Title must be unique per game"]}`, string(resp.Body))
}

func TestClient_ConnectionFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, ShoppingLists, time.Second, zerolog.Nop())
	_, err := c.ListLists(context.Background(), 32, "tok")

	assert.Error(t, err)
}

func TestResourcesFor(t *testing.T) {
	r, err := ResourcesFor("wish_lists")
	require.NoError(t, err)
	assert.Equal(t, WishLists, r)

	r, err = ResourcesFor("shopping")
	require.NoError(t, err)
	assert.Equal(t, ShoppingLists, r)

	_, err = ResourcesFor("grocery_lists")
	assert.Error(t, err)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDecodeListCreated(t *testing.T) {
	agg := domain.List{ID: 1, GameID: 32, Aggregate: true, Title: domain.AggregateListTitle}
	list := domain.List{ID: 2, GameID: 32, Title: "My List 1"}
	body := mustJSON(t, []domain.List{agg, list})

	created, err := DecodeListCreated(body, false)
	require.NoError(t, err)
	assert.Equal(t, domain.FirstListInScope, created.Kind)
	assert.Equal(t, 1, created.Aggregate.ID)
	assert.Equal(t, 2, created.List.ID)

	created, err = DecodeListCreated(body, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ListAdded, created.Kind)

	_, err = DecodeListCreated(mustJSON(t, []domain.List{list, agg}), true)
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	_, err = DecodeListCreated(mustJSON(t, []domain.List{list}), true)
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	_, err = DecodeListCreated([]byte(`{"id":2}`), true)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestDecodeListDestroyed(t *testing.T) {
	destroyed, err := DecodeListDestroyed([]byte(`{"aggregate":null,"deleted":[1,2]}`))
	require.NoError(t, err)
	assert.Nil(t, destroyed.Aggregate)
	assert.Equal(t, []int{1, 2}, destroyed.Deleted)

	destroyed, err = DecodeListDestroyed([]byte(`{"aggregate":{"id":1,"aggregate":true,"list_items":[]},"deleted":[3]}`))
	require.NoError(t, err)
	require.NotNil(t, destroyed.Aggregate)
	assert.Equal(t, 1, destroyed.Aggregate.ID)

	_, err = DecodeListDestroyed([]byte(`{"aggregate":{"id":4,"aggregate":false},"deleted":[3]}`))
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	_, err = DecodeListDestroyed([]byte(`{"deleted":[]}`))
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestDecodeItems(t *testing.T) {
	changed, err := DecodeItems([]byte(`[{"id":5,"list_id":1,"description":"Ebony sword","quantity":3},{"id":9,"list_id":2,"description":"Ebony sword","quantity":2,"notes":"notes 2"}]`))
	require.NoError(t, err)
	require.Len(t, changed.Items, 2)
	assert.Equal(t, "notes 2", *changed.Items[1].Notes)
	assert.Nil(t, changed.Items[0].Notes)

	for _, body := range []string{`[]`, `[null]`, `[{"id":1},{"id":2},{"id":3}]`, `null`, ``} {
		_, err := DecodeItems([]byte(body))
		assert.True(t, errors.Is(err, ErrUnexpectedShape), "body %q", body)
	}
}

func TestDecodeItemDestroyed(t *testing.T) {
	destroyed, err := DecodeItemDestroyed([]byte(`[null,null]`))
	require.NoError(t, err)
	assert.Nil(t, destroyed.Aggregate)
	assert.Nil(t, destroyed.Regular)

	destroyed, err = DecodeItemDestroyed([]byte(`[{"id":5,"list_id":1,"description":"Ebony sword","quantity":1},null]`))
	require.NoError(t, err)
	require.NotNil(t, destroyed.Aggregate)
	assert.Equal(t, 1, destroyed.Aggregate.Quantity)

	_, err = DecodeItemDestroyed([]byte(`[null]`))
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestDecodeGames(t *testing.T) {
	games, err := DecodeGames([]byte(`[{"id":32,"name":"Skyrim"},{"id":51,"name":"Oblivion"}]`))
	require.NoError(t, err)
	assert.Len(t, games, 2)

	games, err = DecodeGames([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, games)

	_, err = DecodeGames([]byte(`null`))
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	_, err = DecodeGame([]byte(`{"name":"no id"}`))
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}
