package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

type testEnv struct {
	db          *sql.DB
	users       *store.UserStore
	households  *store.HouseholdStore
	ingredients *store.IngredientStore
	pantry      *store.PantryStore
	recipes     *store.RecipeStore
	shopping    *store.ShoppingStore
	push        *store.PushStore
	hub         *ws.Hub
	logger      *slog.Logger

	// alice owns household "Smiths"; bob is in "Joneses".
	alice auth.AuthContext
	bob   auth.AuthContext
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &testEnv{
		db:          db,
		users:       store.NewUserStore(db),
		households:  store.NewHouseholdStore(db),
		ingredients: store.NewIngredientStore(db),
		pantry:      store.NewPantryStore(db),
		recipes:     store.NewRecipeStore(db),
		shopping:    store.NewShoppingStore(db),
		push:        store.NewPushStore(db),
		hub:         ws.NewHub(logger),
		logger:      logger,
	}
	e.alice = e.member(t, "alice", "Smiths")
	e.bob = e.member(t, "bob", "Joneses")
	return e
}

func (e *testEnv) member(t *testing.T, name, household string) auth.AuthContext {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.Upsert(ctx, "ext-"+name, name+"@example.com", name)
	require.NoError(t, err)
	h, err := e.households.Create(ctx, u.ID, household)
	require.NoError(t, err)
	return auth.AuthContext{UserID: u.ID, HouseholdID: h.ID, Email: u.Email, Name: u.Name}
}

// call runs h with ac in the request context. pathValues are name, value
// pairs for {wildcards}.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, ac auth.AuthContext, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req = req.WithContext(auth.WithAuth(req.Context(), ac))
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}
