package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	clears  int
}

func (m *memTokens) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memTokens) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memTokens) SetTokens(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	m.refresh = refresh
	return nil
}

func (m *memTokens) ClearTokens(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	m.clears++
	return nil
}

func (m *memTokens) clearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_RefreshIsSingleFlight(t *testing.T) {
	const workers = 8

	var refreshCalls atomic.Int32
	unauthorized := make(chan struct{}, workers)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer t2" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "a@b.c"})
			return
		}
		unauthorized <- struct{}{}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		<-release

		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "r1", req.RefreshToken)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "t2",
			"refresh_token": "r2",
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := &memTokens{access: "t1", refresh: "r1"}
	client := NewClient(srv.URL, 10*time.Second, tokens, testLogger())

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.CurrentUser(context.Background())
			errs <- err
		}()
	}

	// Hold the refresh response until every worker has been rejected once,
	// so all of them contend for the same refresh.
	for i := 0; i < workers; i++ {
		<-unauthorized
	}
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, "t2", tokens.AccessToken())
	require.Equal(t, "r2", tokens.RefreshToken())
}

func TestClient_RefreshFailureExpiresSession(t *testing.T) {
	var protectedCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid refresh token"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := &memTokens{access: "t1", refresh: "r1"}
	client := NewClient(srv.URL, 10*time.Second, tokens, testLogger())

	var expired atomic.Int32
	client.OnSessionExpired(func() { expired.Add(1) })

	_, err := client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	// The failed request is never retried with a dead token pair.
	require.Equal(t, int32(1), protectedCalls.Load())
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, int32(1), expired.Load())
	require.Empty(t, tokens.AccessToken())
	require.Empty(t, tokens.RefreshToken())
	require.Equal(t, 1, tokens.clearCount())
}

func TestClient_AnonymousUnauthorizedSkipsRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second, &memTokens{}, testLogger())

	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "Not authenticated", apiErr.Message)
	require.Equal(t, int32(0), refreshCalls.Load())
}

func TestClient_RetryCarriesRefreshedToken(t *testing.T) {
	var gotAuth []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/projects/active", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer t2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Alpha","is_active":true}]`))
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "t2",
			"refresh_token": "r2",
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := &memTokens{access: "t1", refresh: "r1"}
	client := NewClient(srv.URL, 10*time.Second, tokens, testLogger())

	projects, err := client.ActiveProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Alpha", projects[0].Name)

	require.Equal(t, []string{"Bearer t1", "Bearer t2"}, gotAuth)
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotRequestID, gotContentType string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t1","refresh_token":"r1","token_type":"bearer"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second, &memTokens{}, testLogger())

	grant, err := client.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, "t1", grant.AccessToken)
	require.Equal(t, "r1", grant.RefreshToken)

	require.NotEmpty(t, gotRequestID)
	require.Equal(t, "application/json", gotContentType)
}

func TestClient_EmptyBodyWithExpectedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second, &memTokens{}, testLogger())

	// A 2xx with no body must not be mistaken for a zero-valued profile.
	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty response")

	// Bodyless responses stay fine where no payload is expected.
	require.NoError(t, client.DeleteProject(context.Background(), "p1"))
}

func TestClient_ProjectStages(t *testing.T) {
	var refreshed atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/projects/p1/stages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"stage_name":"RAW_DATA","stage_schema":"PUBLIC","stage_database":"LENS","stage_type":"EXTERNAL","stage_location":"s3://lens/raw","owner":"SYSADMIN","created":"2026-01-02"}]`))
	})
	mux.HandleFunc("/projects/p1/stages/refresh", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		refreshed.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Second, &memTokens{access: "t1", refresh: "r1"}, testLogger())

	stages, err := client.ProjectStages(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, stages, 1)
	require.Equal(t, "RAW_DATA", stages[0].StageName)
	require.Equal(t, "s3://lens/raw", stages[0].StageLocation)

	stages, err = client.RefreshProjectStages(context.Background(), "p1")
	require.NoError(t, err)
	require.Empty(t, stages)
	require.Equal(t, int32(1), refreshed.Load())
}

func TestClient_ErrorEnvelopeKeys(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Project not found"}`, "Project not found"},
		{"error", `{"error":"forbidden"}`, "forbidden"},
		{"message", `{"message":"nope"}`, "nope"},
		{"empty", `{}`, "An error occurred"},
		{"garbage", `<html>`, "An error occurred"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 10*time.Second, &memTokens{}, testLogger())

			err := client.DeleteProject(context.Background(), "p1")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusNotFound, apiErr.Status)
			require.Equal(t, tc.want, apiErr.UserMessage())
		})
	}
}
