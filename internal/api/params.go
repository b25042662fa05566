package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/presenter"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// PageResponse is the paginated list envelope.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// bindJSON decodes the request body into obj and writes a 400 on failure.
// An empty body is treated as an empty object.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		if err = validation.Struct(obj); err == nil {
			return true
		}
	}

	if fields := validation.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, fields)
		return false
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, gin.H{typeErr.Field: []string{"Incorrect type."}})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Malformed JSON body."}})
	return false
}

// idParam parses a positive integer path parameter, writing a 404 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func viewer(c *gin.Context) presenter.Viewer {
	return presenter.Viewer{UserID: currentUser(c)}
}

// maxPageSize caps the limit query parameter.
const maxPageSize = 100

// pagination reads the page and limit query parameters.
type pagination struct {
	defaultSize int
}

func (p pagination) parse(c *gin.Context) (service.Page, bool) {
	page := service.Page{Number: 1, Size: p.defaultSize}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
			return page, false
		}
		page.Number = n
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = min(n, maxPageSize)
		}
	}
	if page.Size < 1 {
		page.Size = 1
	}
	return page, true
}

// respondPage writes the envelope for one page of results. A page past the end
// is a 404, except the first page of an empty listing.
func respondPage[T any](c *gin.Context, page service.Page, total int64, results []T) {
	// index of the last page, counted from zero
	last := int64(0)
	if total > 0 {
		last = (total - 1) / int64(page.Size)
	}
	if page.Number > 1 && int64(page.Number-1) > last {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}

	resp := PageResponse[T]{Count: total, Results: results}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if int64(page.Number-1) < last {
		next := pageURL(c, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

func pageURL(c *gin.Context, number int) string {
	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// recipesLimit reads recipes_limit; absent means every recipe.
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return -1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"recipes_limit": []string{"A valid non-negative integer is required."}})
		return 0, false
	}
	return n, true
}

func flag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True":
		return true
	}
	return false
}
