package githubapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v84/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/adapter/githubapi"
	"github.com/brandon/webhook-agent/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *githubapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base
	return githubapi.NewFromGitHub(gh, nil)
}

func TestPermissionLevel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/collaborators/alice/permission", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"permission": "write"})
	}))

	level, err := client.PermissionLevel(context.Background(), "acme", "widgets", "alice")
	require.NoError(t, err)
	assert.Equal(t, "write", level)
}

func TestPermissionLevelNotACollaborator(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))

	level, err := client.PermissionLevel(context.Background(), "acme", "widgets", "stranger")
	require.NoError(t, err)
	assert.Equal(t, "none", level)
}

func TestPermissionLevelServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "boom"}`, http.StatusBadGateway)
	}))

	_, err := client.PermissionLevel(context.Background(), "acme", "widgets", "alice")
	assert.Error(t, err)
}

func TestPostComment(t *testing.T) {
	var posted struct {
		Body string `json:"body"`
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/issues/7/comments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 1}`))
	}))

	repo := domain.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets"}
	err := client.PostComment(context.Background(), repo, 7, "analysis complete")
	require.NoError(t, err)
	assert.Equal(t, "analysis complete", posted.Body)
}
