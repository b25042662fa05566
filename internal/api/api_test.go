package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	svc    *router.Services
	images *mocks.MemoryImageStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testhelpers.SetupSQLite(t)
	cfg := &config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		AppName:   "Foodgram",
		PageSize:  6,
		MediaRoot: t.TempDir(),
		MediaURL:  "/media",
	}
	images := mocks.NewMemoryImageStore()
	svc := router.NewServices(cfg, db, nil, images)
	return &testAPI{
		t:      t,
		router: router.SetupRouter(cfg, svc),
		db:     db,
		svc:    svc,
		images: images,
	}
}

func (a *testAPI) token(user *models.User) string {
	a.t.Helper()
	token, err := a.svc.Auth.GenerateToken(user.ID)
	require.NoError(a.t, err)
	return token
}

// do sends a request; body may be nil, a string (sent verbatim) or a value
// encoded as JSON.
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type page struct {
	Count    int64            `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []map[string]any `json:"results"`
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
