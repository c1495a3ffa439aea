package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/wamenu/internal/domain/auth"
	"github.com/xenking/wamenu/internal/domain/checkout"
	"github.com/xenking/wamenu/internal/domain/menu"
)

const (
	testPepper = "pepper"
	ownerKey   = "owner-key"
	readerKey  = "reader-key"
)

// memStore is an in-memory menu.Repository, menu.Store and auth.Repository.
type memStore struct {
	mu          sync.Mutex
	restaurants map[string]menu.Restaurant
	entries     map[string][]menu.Entry
	keys        map[string]auth.APIKeyInfo
	fail        error
}

func newMemStore() *memStore {
	s := &memStore{
		restaurants: map[string]menu.Restaurant{
			"r1": {ID: "r1", Name: "Test Restaurant", Description: "A test restaurant", Phone: "0619684987"},
		},
		entries: map[string][]menu.Entry{
			"r1": {
				{ID: "item1", Name: "Pizza Margherita", Price: decimal.RequireFromString("12.50"), Category: "Pizzas", ImageRef: "/pizza.png", Available: true},
				{ID: "item2", Name: "Hamburger Classic", Price: decimal.RequireFromString("14.00"), Category: "Burgers", Available: true},
				{ID: "item3", Name: "Tiramisu", Price: decimal.RequireFromString("6.00"), Category: "Desserts", Available: false},
			},
		},
		keys: make(map[string]auth.APIKeyInfo),
	}
	for id, scopes := range map[string][]string{ownerKey: {auth.ScopeMenuWrite}, readerKey: {"menu:read"}} {
		hash := auth.HashKey(id, []byte(testPepper))
		s.keys[hash] = auth.APIKeyInfo{ID: id, KeyHash: hash, Name: id, Scopes: scopes}
	}
	return s
}

func (s *memStore) FetchRestaurant(_ context.Context, id string) (*menu.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	r, ok := s.restaurants[id]
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return &r, nil
}

func (s *memStore) FetchMenu(_ context.Context, restaurantID string) ([]menu.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []menu.Entry
	for _, e := range s.entries[restaurantID] {
		if e.Available {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b menu.Entry) int { return strings.Compare(a.Category, b.Category) })
	return out, nil
}

func (s *memStore) SaveRestaurant(_ context.Context, r menu.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
	return nil
}

func (s *memStore) ListEntries(_ context.Context, restaurantID string) ([]menu.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[restaurantID]; !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return slices.Clone(s.entries[restaurantID]), nil
}

func (s *memStore) CreateEntry(_ context.Context, restaurantID string, e menu.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[restaurantID]; !ok {
		return menu.ErrRestaurantNotFound
	}
	s.entries[restaurantID] = append(s.entries[restaurantID], e)
	return nil
}

func (s *memStore) UpdateEntry(_ context.Context, restaurantID string, e menu.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.entries[restaurantID] {
		if cur.ID == e.ID {
			s.entries[restaurantID][i] = e
			return nil
		}
	}
	return menu.ErrEntryNotFound
}

func (s *memStore) DeleteEntry(_ context.Context, restaurantID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.entries[restaurantID] {
		if cur.ID == entryID {
			s.entries[restaurantID] = slices.Delete(s.entries[restaurantID], i, i+1)
			return nil
		}
	}
	return menu.ErrEntryNotFound
}

func (s *memStore) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &info, nil
}

func setup(t *testing.T) (*memStore, http.Handler) {
	t.Helper()
	store := newMemStore()
	composer := checkout.NewComposer(checkout.ComposerConfig{})
	h, err := New(
		Config{ImageBaseURL: "https://cdn.example.com", APIKeyPepper: []byte(testPepper)},
		menu.NewService(store),
		menu.NewAdmin(store),
		checkout.NewService(store, composer, 0),
		store,
		noop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	return store, mux
}

func do(h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestGetRestaurant(t *testing.T) {
	_, h := setup(t)

	w := do(h, http.MethodGet, "/api/restaurants/r1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"id": "r1",
		"name": "Test Restaurant",
		"description": "A test restaurant",
		"address": "",
		"phone": "0619684987",
		"themeColor": "#ef4444"
	}`, w.Body.String())

	w = do(h, http.MethodGet, "/api/restaurants/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"restaurant not found"}`, w.Body.String())
}

func TestGetMenu(t *testing.T) {
	_, h := setup(t)

	w := do(h, http.MethodGet, "/api/restaurants/r1/menu", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"restaurant": {"id":"r1","name":"Test Restaurant","description":"A test restaurant","address":"","phone":"0619684987","themeColor":"#ef4444"},
		"available": true,
		"query": "",
		"categories": [
			{"name": "Burgers", "items": [
				{"id":"item2","name":"Hamburger Classic","description":"","price":14.00,"category":"Burgers","imageUrl":null,"available":true}
			]},
			{"name": "Pizzas", "items": [
				{"id":"item1","name":"Pizza Margherita","description":"","price":12.50,"category":"Pizzas","imageUrl":"https://cdn.example.com/pizza.png","available":true}
			]}
		]
	}`, w.Body.String())
}

func TestGetMenu_Search(t *testing.T) {
	_, h := setup(t)

	body := decode(t, do(h, http.MethodGet, "/api/restaurants/r1/menu?q=PIZZ", ""))
	categories := body["categories"].([]any)
	require.Len(t, categories, 1)
	assert.Equal(t, "Pizzas", categories[0].(map[string]any)["name"])

	// The term is matched verbatim: "a " hits "Pizza Margherita" only.
	body = decode(t, do(h, http.MethodGet, "/api/restaurants/r1/menu?q=a%20", ""))
	assert.Equal(t, "a ", body["query"])
	categories = body["categories"].([]any)
	require.Len(t, categories, 1)
	assert.Equal(t, "Pizzas", categories[0].(map[string]any)["name"])

	body = decode(t, do(h, http.MethodGet, "/api/restaurants/r1/menu?q=sushi", ""))
	assert.Empty(t, body["categories"])
	assert.Equal(t, true, body["available"], "search misses do not hide the menu")
}

func TestGetMenu_Errors(t *testing.T) {
	store, h := setup(t)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/restaurants/nope/menu", "").Code)

	store.fail = errors.New("connection refused")
	w := do(h, http.MethodGet, "/api/restaurants/r1/menu", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
}

func TestCheckout(t *testing.T) {
	_, h := setup(t)

	w := do(h, http.MethodPost, "/api/restaurants/r1/checkout",
		`{"items":[{"entryId":"item1","quantity":2},{"entryId":"item2","quantity":1}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"lines": [{"quantity":2,"name":"Pizza Margherita"},{"quantity":1,"name":"Hamburger Classic"}],
		"summary": "2 Pizza Margherita, 1 Hamburger Classic",
		"total": "39.00",
		"units": 3,
		"phone": "212619684987",
		"message": "Nouvelle commande:\n2 Pizza Margherita, 1 Hamburger Classic\nTotal: 39.00€",
		"url": "https://wa.me/212619684987?text=Nouvelle%20commande%3A%0A2%20Pizza%20Margherita%2C%201%20Hamburger%20Classic%0ATotal%3A%2039.00%E2%82%AC"
	}`, w.Body.String())
}

func TestCheckout_Errors(t *testing.T) {
	tests := []struct {
		name       string
		restaurant string
		body       string
		wantCode   int
	}{
		{name: "empty cart", restaurant: "r1", body: `{"items":[]}`, wantCode: http.StatusBadRequest},
		{name: "missing items", restaurant: "r1", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "malformed body", restaurant: "r1", body: `{"items":`, wantCode: http.StatusBadRequest},
		{name: "wrong type", restaurant: "r1", body: `{"items":[{"entryId":"item1","quantity":"two"}]}`, wantCode: http.StatusBadRequest},
		{name: "zero quantity", restaurant: "r1", body: `{"items":[{"entryId":"item1","quantity":0}]}`, wantCode: http.StatusUnprocessableEntity},
		{name: "unavailable entry", restaurant: "r1", body: `{"items":[{"entryId":"item3","quantity":1}]}`, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown restaurant", restaurant: "nope", body: `{"items":[{"entryId":"item1","quantity":1}]}`, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := setup(t)
			w := do(h, http.MethodPost, "/api/restaurants/"+tt.restaurant+"/checkout", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			body := decode(t, w)
			assert.EqualValues(t, tt.wantCode, body["code"])
			assert.NotContains(t, body, "url")
		})
	}
}

func TestAdmin_Auth(t *testing.T) {
	_, h := setup(t)
	const target = "/api/admin/restaurants/r1/menu"

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, target, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, target, "", HeaderAPIKey, "wrong").Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, target, "", HeaderAPIKey, readerKey).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, target, "", HeaderAPIKey, ownerKey).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, target, "", "Authorization", "Bearer "+ownerKey).Code)
}

func TestAdmin_Entries(t *testing.T) {
	store, h := setup(t)
	key := []string{HeaderAPIKey, ownerKey}

	var all []map[string]any
	w := do(h, http.MethodGet, "/api/admin/restaurants/r1/menu", "", key...)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 3, "unavailable entries are listed")

	w = do(h, http.MethodPost, "/api/admin/restaurants/r1/menu",
		`{"name":" Couscous ","price":"11.90","category":"Plats","description":"Royal"}`, key...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Len(t, id, 36)
	assert.Equal(t, "Couscous", created["name"])
	assert.Equal(t, true, created["available"])
	assert.EqualValues(t, 11.9, created["price"])

	w = do(h, http.MethodPut, "/api/admin/restaurants/r1/menu/"+id,
		`{"name":"Couscous","price":12,"category":"Plats","available":false}`, key...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["available"])

	entries, err := store.FetchMenu(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "unavailable entry hidden from the public menu")

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/admin/restaurants/r1/menu/"+id, "", key...).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/api/admin/restaurants/r1/menu/"+id, "", key...).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPut, "/api/admin/restaurants/r1/menu/"+id,
		`{"name":"X","price":1,"category":"Y"}`, key...).Code)
}

func TestAdmin_EntryValidation(t *testing.T) {
	_, h := setup(t)
	key := []string{HeaderAPIKey, ownerKey}

	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
	}{
		{name: "missing name", target: "/api/admin/restaurants/r1/menu", body: `{"price":1,"category":"A"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "negative price", target: "/api/admin/restaurants/r1/menu", body: `{"name":"A","price":-1,"category":"A"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "bad price", target: "/api/admin/restaurants/r1/menu", body: `{"name":"A","price":"abc","category":"A"}`, wantCode: http.StatusBadRequest},
		{name: "unknown restaurant", target: "/api/admin/restaurants/nope/menu", body: `{"name":"A","price":1,"category":"A"}`, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.target, tt.body, key...)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestAdmin_SaveRestaurant(t *testing.T) {
	store, h := setup(t)
	key := []string{HeaderAPIKey, ownerKey}

	w := do(h, http.MethodPut, "/api/admin/restaurants/r2",
		`{"name":"Le Bistro","phone":"+33 6 12 34 56 78","themeColor":"#0f0","address":"1 rue de la Paix"}`, key...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "#0f0", decode(t, w)["themeColor"])
	assert.Equal(t, "1 rue de la Paix", store.restaurants["r2"].Address)

	w = do(h, http.MethodPut, "/api/admin/restaurants/r2", `{"name":"Le Bistro","themeColor":"red"}`, key...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid themeColor: must be #rgb or #rrggbb", decode(t, w)["message"])
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: checkout.ErrEmptyCart, want: http.StatusBadRequest},
		{err: errors.Wrap(menu.ErrRestaurantNotFound, "fetch"), want: http.StatusNotFound},
		{err: menu.ErrEntryNotFound, want: http.StatusNotFound},
		{err: &checkout.InvalidQuantityError{EntryID: "a"}, want: http.StatusUnprocessableEntity},
		{err: &checkout.UnknownEntryError{EntryID: "a"}, want: http.StatusUnprocessableEntity},
		{err: &menu.ValidationError{Field: "name"}, want: http.StatusUnprocessableEntity},
		{err: badRequest(errors.New("eof")), want: http.StatusBadRequest},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
