package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("Recipe is already in favorites."))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "Recipe is already in favorites.", e.Message)
	assert.Equal(t, "conflict", e.MetricLabel())
	assert.Equal(t, "permission_denied", PermissionDenied("no").(*Error).MetricLabel())
}

func TestValidationError(t *testing.T) {
	v := &ValidationError{}
	assert.NoError(t, v.Err())

	v.Add("text", "duplicate")
	v.Add("cooking_time", "too long")
	v.Add("text", "again")
	assert.Equal(t, []string{"duplicate", "again"}, v.Fields["text"])
	assert.Equal(t, "validation failed: cooking_time: too long, text: duplicate; again", v.Error())
	assert.Error(t, v.Err())
}

func TestValidateConvertsFieldErrors(t *testing.T) {
	err := validate(RecipeInput{Tags: []uint{1}, Name: "x", Text: "y", CookingTime: 0})
	var v *ValidationError
	assert.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "cooking_time")
}
