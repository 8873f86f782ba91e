package api

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/health"},
		{http.MethodGet, "/api/health/"},
		{http.MethodGet, "/api"},
		{http.MethodGet, "/api/"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/"},
		{http.MethodPost, "/api/health"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := e.do(t, tc.method, tc.path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

			body := decodeBody[healthResponse](t, resp)
			assert.Equal(t, "ok", body.Status)
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\+00:00$`, body.Time)
		})
	}
}

func TestUnknownRoutesAre404(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/nothing-here"},
		{http.MethodGet, "/api/projects/a/b"},
		// wrong method is reported like an unknown path
		{http.MethodPost, "/api/projects"},
		{http.MethodDelete, "/api/orders"},
	} {
		resp := e.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tc.path)
		assert.Equal(t, "Not found", errorOf(t, resp), tc.path)
	}
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/admin/projects", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", allowedOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := e.client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight from foreign origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/orders", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := e.client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("bare OPTIONS on unknown path", func(t *testing.T) {
		resp := e.do(t, http.MethodOptions, "/api/whatever", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("simple request echoes origin", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/projects", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", allowedOrigin)
		resp, err := e.client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Values("Vary"), "Origin")
	})
}

func TestCORSWithoutUsableOrigins(t *testing.T) {
	for _, origins := range []string{",", "*", " , * "} {
		t.Run(origins, func(t *testing.T) {
			e := newTestEnvWith(t, map[string]string{"CORS_ORIGINS": origins})

			resp := e.send(t, http.MethodGet, "/api/projects", "", "https://evil.example", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))

			req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/orders", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", "https://evil.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			preflight, err := e.client.Do(req)
			require.NoError(t, err)
			defer preflight.Body.Close()
			assert.Equal(t, http.StatusNoContent, preflight.StatusCode)
			assert.Empty(t, preflight.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/api/projects", nil)

	resp := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `route="/projects"`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	e := newTestEnvWith(t, map[string]string{"METRICS_ENABLED": "false"})

	resp := e.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.db.Close())

	resp := e.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Empty(t, body.Details)
}

func TestInternalErrorsShowDetailsInDebug(t *testing.T) {
	e := newTestEnvWith(t, map[string]string{"APP_DEBUG": "true"})
	require.NoError(t, e.db.Close())

	resp := e.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Contains(t, body.Details, "failed to list projects")
}
