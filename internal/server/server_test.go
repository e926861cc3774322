package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rnwolfe/habit/internal/auth"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/habit"
	"github.com/rnwolfe/habit/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 01:30 UTC on the 26th is still the 25th in New York.
var testNow = time.Date(2026, 2, 26, 1, 30, 0, 0, time.UTC)

type fixture struct {
	habits  *habit.Store
	handler http.Handler
	issuer  auth.Issuer
	loc     *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenPath(filepath.Join(t.TempDir(), "habit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	issuer := auth.Issuer{
		Secret: []byte(strings.Repeat("k", auth.MinSecretLength)),
		TTL:    time.Hour,
		Now:    func() time.Time { return testNow },
	}
	hs := habit.NewStore(db.Conn())
	srv, err := New(Options{
		Habits:   hs,
		Verifier: issuer,
		Location: loc,
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &fixture{habits: hs, handler: srv.Handler(), issuer: issuer, loc: loc}
}

func (f *fixture) do(t *testing.T, user, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if user != "" {
		tok, err := f.issuer.Issue(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealthz_NoAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	health := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Build.Version)
}

func TestAPI_RequiresToken(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/api/habits", "/api/completions", "/api/streaks"} {
		rec := f.do(t, "", http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, "Unauthorized", decode[errorResponse](t, rec).Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHabitsCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "alice", http.MethodGet, "/api/habits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"habits":[]}`, rec.Body.String())

	rec = f.do(t, "alice", http.MethodPost, "/api/habits", map[string]string{"name": "  Read  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[habitResponse](t, rec).Habit
	require.NotNil(t, created)
	assert.Equal(t, "Read", created.Name)
	assert.Equal(t, "alice", created.UserID)

	rec = f.do(t, "alice", http.MethodPatch, "/api/habits", map[string]string{"id": created.ID, "name": "Read more"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Read more", decode[habitResponse](t, rec).Habit.Name)

	rec = f.do(t, "alice", http.MethodGet, "/api/habits", nil)
	list := decode[habitsResponse](t, rec).Habits
	require.Len(t, list, 1)

	rec = f.do(t, "alice", http.MethodDelete, "/api/habits?id="+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = f.do(t, "alice", http.MethodDelete, "/api/habits?id="+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHabits_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		target string
		body   any
	}{
		{"blank name", http.MethodPost, "/api/habits", map[string]string{"name": "   "}},
		{"missing name", http.MethodPost, "/api/habits", map[string]string{}},
		{"too long", http.MethodPost, "/api/habits", map[string]string{"name": strings.Repeat("x", habit.MaxNameLength+1)}},
		{"not json", http.MethodPost, "/api/habits", "not an object"},
		{"patch without id", http.MethodPatch, "/api/habits", map[string]string{"name": "x"}},
		{"delete without id", http.MethodDelete, "/api/habits", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "alice", tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestHabits_OtherUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	h, err := f.habits.Add("alice", "Read")
	require.NoError(t, err)

	rec := f.do(t, "mallory", http.MethodPatch, "/api/habits", map[string]string{"id": h.ID, "name": "Mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, "mallory", http.MethodDelete, "/api/habits?id="+h.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, "mallory", http.MethodPost, "/api/completions", map[string]string{"habit_id": h.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, "mallory", http.MethodGet, "/api/habits", nil)
	assert.Empty(t, decode[habitsResponse](t, rec).Habits)
}

func TestCompletions_DefaultToTodayInLocation(t *testing.T) {
	f := newFixture(t)
	h, err := f.habits.Add("alice", "Read")
	require.NoError(t, err)

	rec := f.do(t, "alice", http.MethodPost, "/api/completions", map[string]string{"habit_id": h.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[completionResponse](t, rec)
	require.NotNil(t, resp.Completion)
	assert.False(t, resp.AlreadyExists)
	assert.Equal(t, "2026-02-25", resp.Completion.Date.String())

	rec = f.do(t, "alice", http.MethodPost, "/api/completions", map[string]string{"habit_id": h.ID, "completion_date": "2026-02-25"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"completion":null,"alreadyExists":true}`, rec.Body.String())

	rec = f.do(t, "alice", http.MethodGet, "/api/completions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[completionsResponse](t, rec).Completions, 1)

	rec = f.do(t, "alice", http.MethodGet, "/api/completions?date=2026-02-26", nil)
	assert.Empty(t, decode[completionsResponse](t, rec).Completions)

	rec = f.do(t, "alice", http.MethodDelete, "/api/completions?habit_id="+h.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "alice", http.MethodGet, "/api/completions?habit_id="+h.ID, nil)
	assert.Empty(t, decode[completionsResponse](t, rec).Completions)
}

func TestCompletions_BadInput(t *testing.T) {
	f := newFixture(t)
	h, err := f.habits.Add("alice", "Read")
	require.NoError(t, err)

	rec := f.do(t, "alice", http.MethodPost, "/api/completions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "alice", http.MethodPost, "/api/completions", map[string]string{"habit_id": h.ID, "completion_date": "02/25/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "alice", http.MethodGet, "/api/completions?date=2026-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "alice", http.MethodDelete, "/api/completions", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreaks(t *testing.T) {
	f := newFixture(t)
	read, _ := f.habits.Add("alice", "Read")
	run, _ := f.habits.Add("alice", "Run")
	_, _ = f.habits.Add("alice", "Idle")

	// Today in New York is 2026-02-25.
	for _, d := range []string{"2026-02-25", "2026-02-24", "2026-02-23"} {
		_, _, err := f.habits.Complete("alice", read.ID, daykey.MustParse(d))
		require.NoError(t, err)
	}
	for _, d := range []string{"2026-02-24", "2026-02-20", "2026-02-19"} {
		_, _, err := f.habits.Complete("alice", run.ID, daykey.MustParse(d))
		require.NoError(t, err)
	}
	// Tomorrow in New York: ignored.
	_, _, err := f.habits.Complete("alice", run.ID, daykey.MustParse("2026-02-26"))
	require.NoError(t, err)

	rec := f.do(t, "alice", http.MethodGet, "/api/streaks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[streaksResponse](t, rec)
	assert.Equal(t, map[string]int{read.ID: 3, run.ID: 1}, resp.Streaks)
	assert.Equal(t, 2, resp.Longest[run.ID])

	rec = f.do(t, "alice", http.MethodGet, "/api/streaks?habit_id="+read.ID, nil)
	assert.Equal(t, map[string]int{read.ID: 3}, decode[streaksResponse](t, rec).Streaks)

	rec = f.do(t, "bob", http.MethodGet, "/api/streaks", nil)
	assert.JSONEq(t, `{"streaks":{},"longest":{}}`, rec.Body.String())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	srv, err := New(Options{Habits: f.habits, Verifier: f.issuer})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
