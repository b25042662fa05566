package service_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestDecodeImage(t *testing.T) {
	img, err := service.DecodeImage(testhelpers.PNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Extension)

	bare := strings.TrimPrefix(testhelpers.PNG, "data:image/png;base64,")
	_, err = service.DecodeImage(bare)
	assert.NoError(t, err)

	for name, input := range map[string]string{
		"empty":       "",
		"not base64":  "data:image/png;base64,???",
		"no encoding": "data:image/png,abc",
		"text":        "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, not a picture")),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := service.DecodeImage(input)
			assert.Contains(t, fieldsOf(t, err), "image")
		})
	}
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store := service.NewLocalStore(root, "/media/")
	ctx := context.Background()

	ref, err := service.SaveImage(ctx, store, testhelpers.PNG)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/recipes/images/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)

	path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(ref, "/media/")))
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, store.Delete(ctx, "/elsewhere/x.png"))
	assert.Error(t, store.Delete(ctx, "/media/../etc/passwd"))
}
