package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-123"

// fakeBackend records requests and answers with canned responses per "METHOD path"
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *backend.Client) {
	t.Helper()
	fb := &fakeBackend{responses: make(map[string]fakeResponse)}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, backend.New(srv.URL, backend.WithTimeout(5*time.Second))
}

func (f *fakeBackend) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: string(body)})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.Error(w, `{"message":"no route"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func TestClient_Login(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fb.on(http.MethodPost, backend.PathLogin, http.StatusOK, `{"token":"tok-1","user":{"profileCompleted":true}}`)
		res, err := client.Login(ctx, "a@b.com", "Secret123")
		require.NoError(t, err)
		require.Equal(t, "tok-1", res.Token)
		require.True(t, res.User.ProfileCompleted)

		req := fb.last()
		require.Empty(t, req.Auth, "login is unauthenticated")
		require.JSONEq(t, `{"email":"a@b.com","password":"Secret123"}`, req.Body)
	})

	t.Run("missing token is an invalid response", func(t *testing.T) {
		fb.on(http.MethodPost, backend.PathLogin, http.StatusOK, `{"user":{}}`)
		_, err := client.Login(ctx, "a@b.com", "Secret123")
		require.ErrorIs(t, err, errors.ErrInvalidResponse)
	})

	t.Run("rejected credentials carry the backend message", func(t *testing.T) {
		fb.on(http.MethodPost, backend.PathLogin, http.StatusUnauthorized, `{"message":"Wrong password"}`)
		_, err := client.Login(ctx, "a@b.com", "nope")
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
		require.Equal(t, "Wrong password", backend.UserMessage(err, "fallback"))
	})
}

func TestClient_Signup(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodPost, backend.PathSignup, http.StatusCreated, `{"id":7}`)

	require.NoError(t, client.Signup(context.Background(), "Ada Lovelace", "ada@example.com", "Secret123"))
	require.JSONEq(t, `{"fullName":"Ada Lovelace","email":"ada@example.com","password":"Secret123"}`, fb.last().Body)
}

func TestClient_FetchProfile(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	t.Run("sends bearer token", func(t *testing.T) {
		fb.on(http.MethodGet, backend.PathProfile, http.StatusOK, `{"exams":{"examStatus":"completed"},"profile_complete":true}`)
		profile, err := client.FetchProfile(ctx, testToken)
		require.NoError(t, err)
		require.Equal(t, "completed", profile.Exams.ExamStatus)
		require.Equal(t, "Bearer "+testToken, fb.last().Auth)
	})

	t.Run("not found", func(t *testing.T) {
		fb.on(http.MethodGet, backend.PathProfile, http.StatusNotFound, `{"message":"Profile not found"}`)
		_, err := client.FetchProfile(ctx, testToken)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("null body", func(t *testing.T) {
		fb.on(http.MethodGet, backend.PathProfile, http.StatusOK, `null`)
		_, err := client.FetchProfile(ctx, testToken)
		require.ErrorIs(t, err, errors.ErrProfileMissing)
	})

	t.Run("garbage body", func(t *testing.T) {
		fb.on(http.MethodGet, backend.PathProfile, http.StatusOK, `<html>`)
		_, err := client.FetchProfile(ctx, testToken)
		require.ErrorIs(t, err, errors.ErrInvalidResponse)
	})

	t.Run("server error", func(t *testing.T) {
		fb.on(http.MethodGet, backend.PathProfile, http.StatusBadGateway, ``)
		_, err := client.FetchProfile(ctx, testToken)
		require.ErrorIs(t, err, errors.ErrBackendUnavailable)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := client.FetchProfile(ctx, "")
		require.ErrorIs(t, err, errors.ErrUnauthenticated)
	})
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := backend.New(srv.URL)
	_, err := client.FetchProfile(context.Background(), testToken)
	require.ErrorIs(t, err, errors.ErrBackendUnavailable)
}

func TestClient_SaveProfile(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodPost, backend.PathSave, http.StatusOK, `{"ok":true}`)

	err := client.SaveProfile(context.Background(), testToken, backend.ProfileSubmission{
		Goal:            backend.Goals{TargetDegree: "masters", Countries: []string{"Canada"}},
		ProfileComplete: true,
	})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fb.last().Body), &sent))
	require.Contains(t, sent, "goal", "goals travel under the singular key")
	require.Equal(t, true, sent["profile_complete"])
}

func TestClient_Shortlist(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	fb.on(http.MethodGet, backend.PathShortlist, http.StatusOK,
		`[{"id":4,"universityName":"University of Toronto","universityId":"3","isLocked":false},
		  {"id":9,"universityName":"Stanford University","universityId":"2","isLocked":true}]`)
	items, err := client.Shortlist(ctx, testToken)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.True(t, items[1].IsLocked)

	fb.on(http.MethodGet, backend.PathShortlist, http.StatusOK, `[{"id":4}]`)
	_, err = client.Shortlist(ctx, testToken)
	require.ErrorIs(t, err, errors.ErrInvalidResponse)

	fb.on(http.MethodPost, backend.PathShortlist, http.StatusCreated, `{}`)
	require.NoError(t, client.AddToShortlist(ctx, testToken, backend.ShortlistRequest{UniversityName: "MIT", UniversityID: "1"}))
	require.ErrorIs(t, client.AddToShortlist(ctx, testToken, backend.ShortlistRequest{}), errors.ErrInvalidInput)

	fb.on(http.MethodDelete, backend.PathShortlist+"/4", http.StatusNoContent, ``)
	require.NoError(t, client.RemoveFromShortlist(ctx, testToken, 4))
	require.Equal(t, http.MethodDelete, fb.last().Method)
}

func TestClient_Lock(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodPost, backend.PathLock+"/9", http.StatusOK, `{}`)
	require.NoError(t, client.Lock(context.Background(), testToken, 9))

	fb.on(http.MethodPost, backend.PathLock+"/10", http.StatusBadRequest, `{"message":"Already locked"}`)
	err := client.Lock(context.Background(), testToken, 10)
	require.Error(t, err)
	require.Equal(t, "Already locked", backend.UserMessage(err, "Failed to lock university"))
}

func TestClient_Tasks(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.on(http.MethodGet, backend.PathTasks, http.StatusOK, `[{"id":1,"title":"Write SOP","priority":"high","done":false}]`)

	tasks, err := client.Tasks(context.Background(), testToken)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "high", tasks[0].Priority)
}

func TestClient_Chat(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	fb.on(http.MethodPost, backend.PathChat, http.StatusOK, `{"reply":"Consider Canada.","actionTaken":"SHORTLIST"}`)
	reply, err := client.Chat(ctx, testToken, backend.ChatRequest{Message: "Where should I apply?"})
	require.NoError(t, err)
	require.Equal(t, "Consider Canada.", reply.Reply)
	require.Equal(t, backend.ActionShortlist, reply.ActionTaken)
	require.JSONEq(t, `{"message":"Where should I apply?","profile":{"profile_complete":false}}`, fb.last().Body)
	require.Equal(t, "Bearer "+testToken, fb.last().Auth)

	_, err = client.Chat(ctx, "", backend.ChatRequest{Message: "Hello"})
	require.NoError(t, err, "logged-out visitors can chat")
	require.Empty(t, fb.last().Auth)

	_, err = client.Chat(ctx, testToken, backend.ChatRequest{})
	require.ErrorIs(t, err, errors.ErrInvalidInput)

	fb.on(http.MethodPost, backend.PathChat, http.StatusOK, `{"actionTaken":"LOCK"}`)
	_, err = client.Chat(ctx, testToken, backend.ChatRequest{Message: "hi"})
	require.ErrorIs(t, err, errors.ErrInvalidResponse)
}
