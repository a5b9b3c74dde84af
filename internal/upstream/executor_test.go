package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anybridge/pkg/apierr"
)

func TestExecutor_Do_Success(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"id": "sp1"}]}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "fallback-token")
	result, err := exec.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/v1/spaces",
		Query:  url.Values{"limit": {"50"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer fallback-token", gotAuth)
	assert.Equal(t, "/v1/spaces", gotPath)
	assert.Equal(t, "limit=50", gotQuery)
	assert.Contains(t, result, "data")
}

func TestExecutor_Do_TokenOverride(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "fallback-token")
	_, err := exec.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/v1/spaces",
		Token:  "per-call-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer per-call-token", gotAuth)
}

func TestExecutor_Do_NoToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/auth/challenges"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestExecutor_Do_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "token expired"}}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "stale")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces"})
	// 401 bypasses generic error handling regardless of body content.
	assert.ErrorIs(t, err, apierr.ErrUnauthorized)
}

func TestExecutor_Do_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"message": "object not found"}}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces/s/objects/o"})
	require.Error(t, err)

	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.Equal(t, "object not found", upstream.Message)
}

func TestExecutor_Do_FlatErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad input"}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/spaces"})

	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "bad input", upstream.Message)
}

func TestExecutor_Do_ErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces"})

	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "Bad Gateway", upstream.Message)
}

func TestExecutor_Do_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	result, err := exec.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/v1/spaces/s/objects/o"})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestExecutor_Do_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces"})
	assert.ErrorIs(t, err, apierr.ErrInvalidResponse)
}

func TestExecutor_Do_NonObjectJSONWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "1"}]`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t")
	result, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces"})
	require.NoError(t, err)
	assert.Contains(t, result, "data")
}

func TestExecutor_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.URL, "t", WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/spaces"})
	assert.ErrorIs(t, err, apierr.ErrUpstreamTimeout)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base     string
		path     string
		expected string
	}{
		{"http://localhost:31009", "/v1/spaces", "http://localhost:31009/v1/spaces"},
		{"http://localhost:31009/", "/v1/spaces", "http://localhost:31009/v1/spaces"},
		{"http://localhost:31009/", "v1/spaces", "http://localhost:31009/v1/spaces"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, joinURL(tt.base, tt.path))
	}
}
