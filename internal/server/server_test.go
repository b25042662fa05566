package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{ServerHost: "127.0.0.1", ServerPort: "8080"}
	srv := New(cfg, http.NotFoundHandler())

	require.NotNil(t, srv)
	assert.Equal(t, "127.0.0.1:8080", srv.http.Addr)
	assert.NotZero(t, srv.http.ReadHeaderTimeout)
}

func TestShutdownStopsStart(t *testing.T) {
	cfg := &config.Config{ServerHost: "127.0.0.1", ServerPort: "0"}
	srv := New(cfg, http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
