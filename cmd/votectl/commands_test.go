package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVotectl(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVoteCommand_Settles(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/subreddit/post/vote", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	out, err := runVotectl(t, "vote", "up", "--server", srv.URL, "--token", "tok", "--post", "p1", "--score", "4")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"postId": "p1", "voteType": "UP"}, got)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "predicted: vote=UP score=5\nsettled: vote=UP score=5\n", out)
}

func TestVoteCommand_RollsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Could not register your vote", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := runVotectl(t, "vote", "DOWN", "--server", srv.URL, "--post", "p1", "--current", "UP", "--score", "3")
	require.Error(t, err)

	assert.Contains(t, out, "predicted: vote=DOWN score=1\n")
	assert.Contains(t, out, "rolled back: vote=UP score=3\n")
	assert.Contains(t, out, "settled: vote=UP score=3\n")
}

func TestVoteCommand_LoginRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := runVotectl(t, "vote", "UP", "--server", srv.URL, "--post", "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login required")
}

func TestVoteCommand_InvalidCurrent(t *testing.T) {
	_, err := runVotectl(t, "vote", "UP", "--post", "p1", "--current", "SIDEWAYS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --current")
}

func TestTopCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts/top", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("top"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[{"rank":1,"id":"p1","title":"first","score":7},{"rank":2,"id":"p2","title":"second","score":3}]}`))
	}))
	defer srv.Close()

	out, err := runVotectl(t, "top", "--server", srv.URL, "--top", "2")
	require.NoError(t, err)
	assert.Equal(t, "  1      7  p1  first\n  2      3  p2  second\n", out)
}

func TestTopCommand_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := runVotectl(t, "top", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
