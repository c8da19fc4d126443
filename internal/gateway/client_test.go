package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	key string
}

func (s staticCreds) APIKey() (string, bool) {
	return s.key, s.key != ""
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(staticCreds{}, WithEndpoint(srv.URL))
	_, err := c.Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNoAPIKey)
	assert.False(t, called, "no network call without a key")
}

func TestGenerateSendsPromptAndParsesCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Prompt.Text)
		assert.Equal(t, 40, req.TopK)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]string{{"output": "world"}},
		})
	}))
	defer srv.Close()

	c := NewClient(staticCreds{key: "sk-test"}, WithEndpoint(srv.URL))
	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(staticCreds{key: "sk-test"}, WithEndpoint(srv.URL))
	_, err := c.Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNoOutput)
}

func TestGenerateClassifiesHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			c := NewClient(staticCreds{key: "sk-test"}, WithEndpoint(srv.URL))
			_, err := c.Generate(context.Background(), "hello")
			require.Error(t, err)
			assert.Equal(t, tc.transient, IsTransient(err))
			assert.Equal(t, !tc.transient, IsFatal(err))
		})
	}
}

func TestGenerateNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(staticCreds{key: "sk-test"}, WithEndpoint(srv.URL))
	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
