package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/pkg/config"
	"github.com/ticketcore/promoengine/webapi/testutils"
)

func TestRootRoute(t *testing.T) {
	app, _, _ := testutils.NewTestApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitReturnsProblemDetails(t *testing.T) {
	app, _, _ := testutils.NewTestApp(&config.App{
		Env:       "test",
		RateLimit: &config.RateLimit{MaxRequests: 2, Window: time.Minute},
	})

	for i := range 3 {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		if i < 2 {
			assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
	}
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":3000", listenAddr(nil))
	assert.Equal(t, "0.0.0.0:8080", listenAddr(&config.Server{Host: "0.0.0.0", Port: 8080}))
	assert.Equal(t, "http", schemeOf(nil))
}
