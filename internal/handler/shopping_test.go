package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/larder/internal/model"
)

type notification struct {
	householdID, actorID int64
	itemName             string
}

type fakeNotifier struct {
	calls chan notification
}

func (f *fakeNotifier) NotifyShoppingItemAdded(_ context.Context, householdID, actorID int64, itemName string) {
	f.calls <- notification{householdID, actorID, itemName}
}

func addShoppingItem(t *testing.T, h *ShoppingHandler, e *testEnv, req shoppingItemRequest) model.ShoppingListItem {
	t.Helper()
	rec := call(t, h.AddItem, http.MethodPost, "/api/shopping/items", req, e.alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.ShoppingListItem](t, rec)
}

func TestShoppingActiveBeforeAnyList(t *testing.T) {
	e := newTestEnv(t)
	h := NewShoppingHandler(e.shopping, nil, e.hub, e.logger)

	rec := call(t, h.Active, http.MethodGet, "/api/shopping", nil, e.alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestShoppingAddItemNotifies(t *testing.T) {
	e := newTestEnv(t)
	notifier := &fakeNotifier{calls: make(chan notification, 1)}
	h := NewShoppingHandler(e.shopping, notifier, e.hub, e.logger)

	item := addShoppingItem(t, h, e, shoppingItemRequest{Name: "Eggs", Quantity: 12, Unit: "pieces"})
	assert.Equal(t, "Eggs", item.IngredientName)

	select {
	case n := <-notifier.calls:
		assert.Equal(t, notification{e.alice.HouseholdID, e.alice.UserID, "Eggs"}, n)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}

	// Re-adding sums into the same row.
	again := addShoppingItem(t, h, e, shoppingItemRequest{Name: "eggs", Quantity: 6, Unit: "pieces"})
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 18.0, again.Quantity)
	<-notifier.calls

	rec := call(t, h.Active, http.MethodGet, "/api/shopping", nil, e.alice)
	list := decode[model.ShoppingListWithItems](t, rec)
	assert.True(t, list.IsActive)
	assert.Len(t, list.Items, 1)

	rec = call(t, h.AddItem, http.MethodPost, "/api/shopping/items", shoppingItemRequest{Name: "Milk"}, e.alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShoppingToggleCreditsPantry(t *testing.T) {
	e := newTestEnv(t)
	h := NewShoppingHandler(e.shopping, nil, e.hub, e.logger)
	ctx := context.Background()

	milk := addShoppingItem(t, h, e, shoppingItemRequest{Name: "Milk", Category: "dairy", Quantity: 2, Unit: "l"})
	bread := addShoppingItem(t, h, e, shoppingItemRequest{Name: "Bread", Category: "bakery", Quantity: 1, Unit: "loaf"})

	milkID := strconv.FormatInt(milk.ID, 10)
	rec := call(t, h.TogglePurchased, http.MethodPost, "/api/shopping/items/"+milkID+"/toggle", nil, e.alice, "id", milkID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[model.ToggleResult](t, rec)
	assert.True(t, res.IsPurchased)
	assert.True(t, res.CreditedPantry)

	p, err := e.pantry.Find(ctx, e.alice.HouseholdID, milk.IngredientID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2.0, p.Quantity)
	assert.Equal(t, "fridge", p.Location)

	noCredit := false
	breadID := strconv.FormatInt(bread.ID, 10)
	rec = call(t, h.TogglePurchased, http.MethodPost, "/api/shopping/items/"+breadID+"/toggle",
		toggleRequest{AddToPantry: &noCredit}, e.alice, "id", breadID)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[model.ToggleResult](t, rec)
	assert.True(t, res.IsPurchased)
	assert.False(t, res.CreditedPantry)

	p, err = e.pantry.Find(ctx, e.alice.HouseholdID, bread.IngredientID)
	require.NoError(t, err)
	assert.Nil(t, p)

	// Un-marking keeps the pantry credit.
	rec = call(t, h.TogglePurchased, http.MethodPost, "/api/shopping/items/"+milkID+"/toggle", nil, e.alice, "id", milkID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.ToggleResult](t, rec).IsPurchased)
	p, err = e.pantry.Find(ctx, e.alice.HouseholdID, milk.IngredientID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Quantity)

	rec = call(t, h.TogglePurchased, http.MethodPost, "/api/shopping/items/"+milkID+"/toggle", nil, e.bob, "id", milkID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShoppingUpdateAndDeleteScoped(t *testing.T) {
	e := newTestEnv(t)
	h := NewShoppingHandler(e.shopping, nil, e.hub, e.logger)

	item := addShoppingItem(t, h, e, shoppingItemRequest{Name: "Rice", Quantity: 1, Unit: "kg"})
	id := strconv.FormatInt(item.ID, 10)

	qty := 3.0
	rec := call(t, h.UpdateItem, http.MethodPut, "/api/shopping/items/"+id, model.ShoppingItemPatch{Quantity: &qty}, e.bob, "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.UpdateItem, http.MethodPut, "/api/shopping/items/"+id, model.ShoppingItemPatch{Quantity: &qty}, e.alice, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode[model.ShoppingListItem](t, rec).Quantity)

	rec = call(t, h.DeleteItem, http.MethodDelete, "/api/shopping/items/"+id, nil, e.bob, "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.DeleteItem, http.MethodDelete, "/api/shopping/items/"+id, nil, e.alice, "id", id)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestShoppingClearAndHistory(t *testing.T) {
	e := newTestEnv(t)
	h := NewShoppingHandler(e.shopping, nil, e.hub, e.logger)

	eggs := addShoppingItem(t, h, e, shoppingItemRequest{Name: "Eggs", Quantity: 6})
	addShoppingItem(t, h, e, shoppingItemRequest{Name: "Flour", Quantity: 1, Unit: "kg"})
	listID := strconv.FormatInt(eggs.ListID, 10)

	eggsID := strconv.FormatInt(eggs.ID, 10)
	call(t, h.TogglePurchased, http.MethodPost, "/api/shopping/items/"+eggsID+"/toggle", nil, e.alice, "id", eggsID)

	rec := call(t, h.ClearPurchased, http.MethodPost, "/api/shopping/lists/"+listID+"/clear-purchased", nil, e.bob, "id", listID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.ClearPurchased, http.MethodPost, "/api/shopping/lists/"+listID+"/clear-purchased", nil, e.alice, "id", listID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, rec)["removed"])

	rec = call(t, h.ClearList, http.MethodPost, "/api/shopping/lists/"+listID+"/clear", nil, e.alice, "id", listID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, rec)["removed"])

	rec = call(t, h.CreateList, http.MethodPost, "/api/shopping/lists", listNameRequest{Name: "Party"}, e.alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	party := decode[model.ShoppingList](t, rec)
	assert.Equal(t, "Party", party.Name)
	assert.True(t, party.IsActive)

	rec = call(t, h.History, http.MethodGet, "/api/shopping/lists", nil, e.alice)
	lists := decode[[]model.ShoppingList](t, rec)
	require.Len(t, lists, 2)
	active := 0
	for _, l := range lists {
		if l.IsActive {
			active++
			assert.Equal(t, party.ID, l.ID)
		}
	}
	assert.Equal(t, 1, active)

	rec = call(t, h.History, http.MethodGet, "/api/shopping/lists", nil, e.bob)
	assert.JSONEq(t, "[]", rec.Body.String())
}
