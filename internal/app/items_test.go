package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
	"github.com/cartcompass/cartcompass/internal/session"
)

// itemsBackend is a tiny stateful mock of the item endpoints.
type itemsBackend struct {
	mu    sync.Mutex
	items []entity.Item
}

func (b *itemsBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		switch {
		case r.URL.Path == constants.EndpointUser && r.Method == http.MethodPost:
			fmt.Fprint(w, aliceJSON)

		case strings.HasPrefix(r.URL.Path, "/api/getitems/"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, itemsJSON(b.items))

		case strings.HasPrefix(r.URL.Path, "/api/item/") && r.Method == http.MethodDelete:
			uuid := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/item/"), "/")
			for i, item := range b.items {
				if item.ItemUUID == uuid {
					b.items = append(b.items[:i], b.items[i+1:]...)
					fmt.Fprint(w, `{}`)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"Item not found."}`)

		case strings.HasPrefix(r.URL.Path, "/api/item/") && r.Method == http.MethodPut:
			fmt.Fprint(w, `{}`)

		case strings.HasPrefix(r.URL.Path, "/api/createitem/"):
			created := entity.Item{ItemUUID: "i-new", Quantity: 1}
			b.items = append(b.items, created)
			fmt.Fprint(w, `{"item_uuid":"i-new","quantity":1}`)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func itemsJSON(items []entity.Item) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf(`{"item_uuid":%q,"name":%q,"quantity":%d,"price":%g,"stores_checked":{}}`,
			item.ItemUUID, item.Name, item.Quantity, item.Price)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func newItemsEnv(t *testing.T) (*testEnv, *itemsBackend) {
	backend := &itemsBackend{items: []entity.Item{
		{ItemUUID: "11111111-1111-1111-1111-111111111111", Name: "Milk", Quantity: 1, Price: 3.49},
		{ItemUUID: "22222222-2222-2222-2222-222222222222", Name: "Bread", Quantity: 2, Price: 2.99},
	}}
	env := newTestEnv(t, backend.handler(t))
	require.NoError(t, env.app.Login(context.Background(), "alice", "S3cret!pw"))
	return env, backend
}

func TestDeleteItemInvalidatesList(t *testing.T) {
	env, _ := newItemsEnv(t)
	ctx := context.Background()

	items, err := env.app.RefreshItems(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	events, cancel := env.store.Subscribe(session.ResourceItems)
	defer cancel()

	before := env.store.Refresh()
	require.NoError(t, env.app.DeleteItem(ctx, "11111111-1111-1111-1111-111111111111"))
	assert.Equal(t, before+1, env.store.Refresh(), "one success, one increment")

	// The invalidation event drives the refetch, exactly like the list
	// effect re-running on a counter change.
	select {
	case ev := <-events:
		assert.Equal(t, session.ResourceItems, ev.Resource)
	case <-time.After(time.Second):
		t.Fatal("expected an items invalidation event")
	}

	items, err = env.app.RefreshItems(ctx, "r-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].Name)
	assert.Len(t, env.store.ItemList(), 1)
}

func TestDeleteItemFailureLeavesCounter(t *testing.T) {
	env, _ := newItemsEnv(t)
	ctx := context.Background()

	before := env.store.Refresh()
	err := env.app.DeleteItem(ctx, "99999999-9999-9999-9999-999999999999")
	require.Error(t, err)
	assert.Equal(t, "Item not found.", common.UserMessage(err))
	assert.Equal(t, before, env.store.Refresh())
}

func TestEditItemClampsNegativeValues(t *testing.T) {
	env, _ := newItemsEnv(t)
	ctx := context.Background()

	item := entity.Item{
		ItemUUID: "11111111-1111-1111-1111-111111111111",
		Name:     "Milk",
		Price:    -4,
		Quantity: -1,
	}
	require.NoError(t, env.app.EditItem(ctx, item))
	assert.EqualValues(t, 1+1, env.store.Refresh()) // login + edit
}

func TestAddItemBumpsCounter(t *testing.T) {
	env, _ := newItemsEnv(t)
	ctx := context.Background()

	item, err := env.app.AddItem(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "i-new", item.ItemUUID)
	assert.EqualValues(t, 2, env.store.Refresh())
}
