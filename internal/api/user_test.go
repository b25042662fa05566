package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func registration(username string) map[string]string {
	return map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Vasya",
		"last_name":  "Pupkin",
		"password":   "Qwerty-123456",
	}
}

func TestRegister(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/api/users", "", registration("vasya"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []string{"email", "id", "username", "first_name", "last_name"}, keysOf(body))
	assert.Equal(t, "vasya@example.com", body["email"])

	w = a.do(http.MethodPost, "/api/users", "", registration("vasya"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[map[string][]string](t, w)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "username")
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAPI(t)

	in := registration("petya")
	in["email"] = "not-an-email"
	in["password"] = "123"
	w := a.do(http.MethodPost, "/api/users", "", in)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[map[string][]string](t, w)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	w = a.do(http.MethodPost, "/api/users", "", `{"email": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"non_field_errors":["Malformed JSON body."]}`, w.Body.String())
}

func TestMe(t *testing.T) {
	a := newTestAPI(t)
	alice := testhelpers.CreateUser(t, a.db, "alice")

	w := a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, w.Body.String())

	w = a.do(http.MethodGet, "/api/users/me", a.token(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []string{"email", "id", "username", "first_name", "last_name", "is_subscribed"}, keysOf(body))
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["is_subscribed"])
}

func TestGetUserShowsSubscription(t *testing.T) {
	a := newTestAPI(t)
	alice := testhelpers.CreateUser(t, a.db, "alice")
	bob := testhelpers.CreateUser(t, a.db, "bob")
	testhelpers.Subscribe(t, a.db, alice, bob)

	path := "/api/users/" + itoa(bob.ID)
	body := decode[map[string]any](t, a.do(http.MethodGet, path, a.token(alice), nil))
	assert.Equal(t, true, body["is_subscribed"])

	body = decode[map[string]any](t, a.do(http.MethodGet, path, "", nil))
	assert.Equal(t, false, body["is_subscribed"])

	w := a.do(http.MethodGet, "/api/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodGet, "/api/users/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsersPagination(t *testing.T) {
	a := newTestAPI(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		testhelpers.CreateUser(t, a.db, name)
	}

	w := a.do(http.MethodGet, "/api/users?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[page](t, w)
	assert.Equal(t, int64(3), p.Count)
	require.Len(t, p.Results, 2)
	assert.Equal(t, "alice", p.Results[0]["username"])
	require.NotNil(t, p.Next)
	assert.Equal(t, "http://example.com/api/users?limit=2&page=2", *p.Next)
	assert.Nil(t, p.Previous)

	p = decode[page](t, a.do(http.MethodGet, "/api/users?limit=2&page=2", "", nil))
	require.Len(t, p.Results, 1)
	assert.Equal(t, "carol", p.Results[0]["username"])
	assert.Nil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "http://example.com/api/users?limit=2", *p.Previous)

	w = a.do(http.MethodGet, "/api/users?limit=2&page=3", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodGet, "/api/users?page=zero", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsersHugePageNumber(t *testing.T) {
	a := newTestAPI(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		testhelpers.CreateUser(t, a.db, name)
	}

	w := a.do(http.MethodGet, "/api/users?page=9223372036854775807", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid page.", decode[map[string]any](t, w)["detail"])

	w = a.do(http.MethodGet, "/api/users?limit=9223372036854775807&page=2", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	p := decode[page](t, a.do(http.MethodGet, "/api/users?limit=100000", "", nil))
	assert.Len(t, p.Results, 3)
	assert.Nil(t, p.Next)
}

func TestSetPassword(t *testing.T) {
	a := newTestAPI(t)
	alice := testhelpers.CreateUser(t, a.db, "alice")
	token := a.token(alice)

	w := a.do(http.MethodPost, "/api/users/set_password", token, map[string]string{
		"current_password": "wrong-one",
		"new_password":     "Another-pass-42",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "current_password")

	w = a.do(http.MethodPost, "/api/users/set_password", token, map[string]string{
		"current_password": testhelpers.TestPassword,
		"new_password":     "Another-pass-42",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Another-pass-42",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscribeFlow(t *testing.T) {
	a := newTestAPI(t)
	alice := testhelpers.CreateUser(t, a.db, "alice")
	bob := testhelpers.CreateUser(t, a.db, "bob")
	testhelpers.CreateRecipe(t, a.db, bob, "Soup", nil)
	testhelpers.CreateRecipe(t, a.db, bob, "Pie", nil)
	token := a.token(alice)
	path := "/api/users/" + itoa(bob.ID) + "/subscribe"

	w := a.do(http.MethodPost, path+"?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.ElementsMatch(t, []string{
		"email", "id", "username", "first_name", "last_name", "is_subscribed", "recipes", "recipes_count",
	}, keysOf(body))
	assert.Equal(t, true, body["is_subscribed"])
	assert.Equal(t, float64(2), body["recipes_count"])
	recipes := body["recipes"].([]any)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Pie", recipes[0].(map[string]any)["name"])

	w = a.do(http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":"You are already subscribed to this author."}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/users/"+itoa(alice.ID)+"/subscribe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":"You cannot subscribe to yourself."}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/users/9999/subscribe", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	p := decode[page](t, a.do(http.MethodGet, "/api/users/subscriptions?recipes_limit=0", token, nil))
	assert.Equal(t, int64(1), p.Count)
	require.Len(t, p.Results, 1)
	assert.Empty(t, p.Results[0]["recipes"])
	assert.Equal(t, float64(2), p.Results[0]["recipes_count"])

	w = a.do(http.MethodGet, "/api/users/subscriptions?recipes_limit=x", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())

	var count int64
	require.NoError(t, a.db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}
