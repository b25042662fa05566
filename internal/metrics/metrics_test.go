package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labeledErr struct{}

func (labeledErr) Error() string       { return "already exists" }
func (labeledErr) MetricLabel() string { return "conflict" }

func TestRecordRelationToggle(t *testing.T) {
	ok := RelationTogglesTotal.WithLabelValues("favorite", ActionAdd, "ok")
	conflict := RelationTogglesTotal.WithLabelValues("favorite", ActionAdd, "conflict")
	failed := RelationTogglesTotal.WithLabelValues("favorite", ActionRemove, "error")

	beforeOK := testutil.ToFloat64(ok)
	beforeConflict := testutil.ToFloat64(conflict)
	beforeFailed := testutil.ToFloat64(failed)

	RecordRelationToggle("favorite", ActionAdd, nil)
	RecordRelationToggle("favorite", ActionAdd, labeledErr{})
	RecordRelationToggle("favorite", ActionRemove, errors.New("db down"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeConflict+1, testutil.ToFloat64(conflict))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/tags/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/metrics", Handler())

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/tags/:id", "418")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags/7", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "foodgram_http_requests_total"))
}
