//go:build !integration

package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleshop/cart-sync/config"
)

func TestInitializeApp_InMemory(t *testing.T) {
	cfg := config.Load()
	cfg.Database.Enabled = false

	router, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cart"`)
}

func TestNewServer_Defaults(t *testing.T) {
	server := NewServer(http.NewServeMux(), "5000")

	require.NotNil(t, server)
	assert.Equal(t, ":5000", server.httpServer.Addr)
	assert.NoError(t, server.Shutdown())
}
