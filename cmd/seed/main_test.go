package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestLoadSeedFile(t *testing.T) {
	data, err := loadSeedFile(filepath.Join("..", "..", "data", "seed.yaml"))
	require.NoError(t, err)
	assert.Len(t, data.Tags, 3)
	assert.Equal(t, "breakfast", data.Tags[0].Slug)
	assert.NotEmpty(t, data.Ingredients)
}

func TestLoadSeedFileErrors(t *testing.T) {
	_, err := loadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tags: [\n"), 0o644))
	_, err = loadSeedFile(bad)
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	data, err := loadSeedFile(filepath.Join("..", "..", "data", "seed.yaml"))
	require.NoError(t, err)

	require.NoError(t, seed(context.Background(), db, data))
	require.NoError(t, seed(context.Background(), db, data))

	var tags, ingredients int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tags).Error)
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&ingredients).Error)
	assert.Equal(t, int64(len(data.Tags)), tags)
	assert.Equal(t, int64(len(data.Ingredients)), ingredients)
}

func TestSeedRejectsInvalidTag(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	data := &seedFile{Tags: []service.TagInput{{Name: "Bad", Color: "red", Slug: "bad"}}}
	assert.Error(t, seed(context.Background(), db, data))
}
