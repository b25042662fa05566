package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type kitchen struct {
	alice, bob  *models.User
	breakfast   *models.Tag
	lunch       *models.Tag
	flour, eggs *models.Ingredient
}

func newKitchen(t *testing.T, a *testAPI) kitchen {
	t.Helper()
	return kitchen{
		alice:     testhelpers.CreateUser(t, a.db, "alice"),
		bob:       testhelpers.CreateUser(t, a.db, "bob"),
		breakfast: testhelpers.CreateTag(t, a.db, "Breakfast", "#E26C2D"),
		lunch:     testhelpers.CreateTag(t, a.db, "Lunch", "#49B64E"),
		flour:     testhelpers.CreateIngredient(t, a.db, "flour", "g"),
		eggs:      testhelpers.CreateIngredient(t, a.db, "egg", "pcs"),
	}
}

func (k kitchen) pancakes() map[string]any {
	return map[string]any{
		"tags": []uint{k.breakfast.ID},
		"ingredients": []map[string]any{
			{"id": k.flour.ID, "amount": 200},
			{"id": k.eggs.ID, "amount": 2},
		},
		"name":         "Pancakes",
		"image":        testhelpers.PNG,
		"text":         "Mix everything and fry.",
		"cooking_time": 20,
	}
}

func TestCreateAndGetRecipe(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)

	w := a.do(http.MethodPost, "/api/recipes", a.token(k.alice), k.pancakes())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []string{
		"id", "tags", "author", "ingredients", "is_favorited",
		"is_in_shopping_cart", "name", "image", "text", "cooking_time",
	}, keysOf(created))
	assert.Equal(t, false, created["is_favorited"])
	assert.Equal(t, false, created["is_in_shopping_cart"])
	assert.Equal(t, "alice", created["author"].(map[string]any)["username"])
	assert.Len(t, created["ingredients"], 2)
	assert.NotEmpty(t, created["image"])
	assert.Equal(t, 1, a.images.Len())

	id := uint(created["id"].(float64))
	first := a.do(http.MethodGet, "/api/recipes/"+itoa(id), "", nil)
	second := a.do(http.MethodGet, "/api/recipes/"+itoa(id), "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.JSONEq(t, w.Body.String(), first.Body.String())
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)

	w := a.do(http.MethodPost, "/api/recipes", "", k.pancakes())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidation(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	token := a.token(k.alice)

	w := a.do(http.MethodPost, "/api/recipes", token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[map[string][]string](t, w)
	for _, field := range []string{"tags", "name", "text", "cooking_time"} {
		assert.Contains(t, errs, field)
	}

	in := k.pancakes()
	in["cooking_time"] = "soon"
	w = a.do(http.MethodPost, "/api/recipes", token, in)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"cooking_time":["Incorrect type."]}`, w.Body.String())

	in = k.pancakes()
	in["image"] = ""
	w = a.do(http.MethodPost, "/api/recipes", token, in)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "image")

	in = k.pancakes()
	in["tags"] = []uint{9999}
	w = a.do(http.MethodPost, "/api/recipes", token, in)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "tags")

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/recipes", token, k.pancakes()).Code)
	w = a.do(http.MethodPost, "/api/recipes", token, k.pancakes())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "text")
}

func TestUpdateRecipe(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	recipe := testhelpers.CreateRecipe(t, a.db, k.alice, "Omelette", []*models.Tag{k.breakfast},
		testhelpers.Amount{Ingredient: k.eggs, Amount: 3})
	path := "/api/recipes/" + itoa(recipe.ID)

	update := map[string]any{
		"tags":         []uint{k.lunch.ID},
		"ingredients":  []map[string]any{{"id": k.flour.ID, "amount": 50}},
		"name":         "Big omelette",
		"text":         "Whisk and bake.",
		"cooking_time": 15,
	}

	w := a.do(http.MethodPatch, path, a.token(k.bob), update)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// authorship is checked before the body is validated
	w = a.do(http.MethodPatch, path, a.token(k.bob), map[string]any{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "detail")

	w = a.do(http.MethodPatch, path, "", update)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPatch, path, a.token(k.alice), update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Big omelette", body["name"])
	assert.Equal(t, recipe.Image, body["image"])

	ingredients := body["ingredients"].([]any)
	require.Len(t, ingredients, 1)
	assert.Equal(t, "flour", ingredients[0].(map[string]any)["name"])
	assert.Equal(t, float64(50), ingredients[0].(map[string]any)["amount"])

	tags := body["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "lunch", tags[0].(map[string]any)["slug"])

	w = a.do(http.MethodPatch, "/api/recipes/9999", a.token(k.alice), update)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRecipe(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	recipe := testhelpers.CreateRecipe(t, a.db, k.alice, "Omelette", nil)
	testhelpers.AddFavorite(t, a.db, k.bob, recipe)
	path := "/api/recipes/" + itoa(recipe.ID)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, path, a.token(k.bob), nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, path, a.token(k.alice), nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, path, "", nil).Code)

	var favorites int64
	require.NoError(t, a.db.Model(&models.Favorite{}).Count(&favorites).Error)
	assert.Zero(t, favorites)
}

func TestFavoriteAndCartMarkers(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	recipe := testhelpers.CreateRecipe(t, a.db, k.alice, "Omelette", nil)
	token := a.token(k.bob)

	tests := []struct {
		path      string
		duplicate string
	}{
		{"/favorite", "Recipe is already in favorites."},
		{"/shopping_cart", "Recipe is already in the shopping list."},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path := "/api/recipes/" + itoa(recipe.ID) + tt.path

			w := a.do(http.MethodPost, path, token, nil)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.JSONEq(t, `{"id":`+itoa(recipe.ID)+`,"name":"Omelette","image":"`+recipe.Image+`","cooking_time":30}`, w.Body.String())

			w = a.do(http.MethodPost, path, token, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"errors":"`+tt.duplicate+`"}`, w.Body.String())

			assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, path, token, nil).Code)

			w = a.do(http.MethodDelete, path, token, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Empty(t, w.Body.String())

			w = a.do(http.MethodPost, "/api/recipes/9999"+tt.path, token, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestListRecipesFilters(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	omelette := testhelpers.CreateRecipe(t, a.db, k.alice, "Omelette", []*models.Tag{k.breakfast})
	soup := testhelpers.CreateRecipe(t, a.db, k.bob, "Soup", []*models.Tag{k.lunch})
	porridge := testhelpers.CreateRecipe(t, a.db, k.bob, "Porridge", []*models.Tag{k.breakfast})
	testhelpers.AddFavorite(t, a.db, k.alice, soup)
	testhelpers.AddToCart(t, a.db, k.alice, porridge)
	token := a.token(k.alice)

	names := func(p page) []any {
		out := make([]any, len(p.Results))
		for i, r := range p.Results {
			out[i] = r["name"]
		}
		return out
	}

	p := decode[page](t, a.do(http.MethodGet, "/api/recipes", "", nil))
	assert.Equal(t, int64(3), p.Count)
	assert.Equal(t, []any{"Porridge", "Soup", "Omelette"}, names(p))
	for _, r := range p.Results {
		assert.Equal(t, false, r["is_favorited"])
	}

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?tags=breakfast", "", nil))
	assert.Equal(t, []any{"Porridge", "Omelette"}, names(p))

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?tags=breakfast&tags=lunch", "", nil))
	assert.Equal(t, int64(3), p.Count)

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?author="+itoa(k.alice.ID), "", nil))
	assert.Equal(t, []any{"Omelette"}, names(p))
	assert.Equal(t, float64(omelette.ID), p.Results[0]["id"])

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?is_favorited=1", token, nil))
	assert.Equal(t, []any{"Soup"}, names(p))
	assert.Equal(t, true, p.Results[0]["is_favorited"])

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?is_in_shopping_cart=1", token, nil))
	assert.Equal(t, []any{"Porridge"}, names(p))
	assert.Equal(t, true, p.Results[0]["is_in_shopping_cart"])

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?is_favorited=1", "", nil))
	assert.Equal(t, int64(3), p.Count)

	p = decode[page](t, a.do(http.MethodGet, "/api/recipes?limit=1&page=2", "", nil))
	assert.Equal(t, []any{"Soup"}, names(p))
	assert.NotNil(t, p.Next)
	assert.NotNil(t, p.Previous)

	w := a.do(http.MethodGet, "/api/recipes?author=bob", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	a := newTestAPI(t)
	k := newKitchen(t, a)
	sugar := testhelpers.CreateIngredient(t, a.db, "sugar", "g")
	cake := testhelpers.CreateRecipe(t, a.db, k.bob, "Cake", nil,
		testhelpers.Amount{Ingredient: k.flour, Amount: 200},
		testhelpers.Amount{Ingredient: sugar, Amount: 50},
		testhelpers.Amount{Ingredient: k.eggs, Amount: 2})
	bread := testhelpers.CreateRecipe(t, a.db, k.bob, "Bread", nil,
		testhelpers.Amount{Ingredient: k.flour, Amount: 100})
	testhelpers.AddToCart(t, a.db, k.alice, cake)
	testhelpers.AddToCart(t, a.db, k.alice, bread)

	w := a.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", a.token(k.alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=shopping-list.txt", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Foodgram\nСписок покупок:\negg, 2 pcs\nflour, 300 g\nsugar, 50 g\n", w.Body.String())

	w = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", a.token(k.bob), nil)
	assert.Equal(t, "Foodgram\nСписок покупок:\n", w.Body.String())
}
