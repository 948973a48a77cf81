package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/auth"
	"mindhaven/internal/config"
	"mindhaven/internal/platform/requestctx"
	"mindhaven/internal/storage/sqlite"
)

type harness struct {
	handler http.Handler
	issuer  *auth.Issuer
	store   *sqlite.Store
}

func newHarness(t *testing.T, chatURL string) *harness {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	issuer := auth.NewIssuer("test-secret", time.Hour)
	if chatURL == "" {
		chatURL = "http://127.0.0.1:1/chat"
	}
	srv, err := New(Options{
		Accounts: auth.NewService(store, issuer, auth.WithBcryptCost(4)),
		ChatURL:  chatURL,
		LoadGames: func() (config.Games, error) {
			return config.Games{Chess: "https://games.example.com/chess", TicTacToe: "https://games.example.com/ttt"}, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return &harness{handler: srv.Handler(), issuer: issuer, store: store}
}

func (h *harness) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		request.Header[key] = values
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value), recorder.Body.String())
	return value
}

func authHeader(value string) http.Header {
	return http.Header{"Authorization": []string{value}}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, "")
	recorder := h.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok":true}`, recorder.Body.String())

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/nope", "", nil).Code)
}

func TestSignupLoginMe(t *testing.T) {
	h := newHarness(t, "")

	signup := h.do(http.MethodPost, "/api/auth/signup", `{"name":"Ada","email":"ada@example.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, signup.Code, signup.Body.String())
	created := decodeBody[auth.Session](t, signup)
	assert.Equal(t, "Ada", created.User.Name)

	login := h.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	session := decodeBody[auth.Session](t, login)

	me := h.do(http.MethodGet, "/api/auth/me", "", authHeader("Bearer "+session.Token))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, created.User, decodeBody[meResponse](t, me).User)
}

func TestAuthFailures(t *testing.T) {
	h := newHarness(t, "")
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/auth/signup", `{"name":"A","email":"a@example.com","password":"pw"}`, nil).Code)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"duplicate email", "/api/auth/signup", `{"name":"B","email":"a@example.com","password":"pw"}`, http.StatusConflict},
		{"missing name", "/api/auth/signup", `{"email":"b@example.com","password":"pw"}`, http.StatusBadRequest},
		{"broken json", "/api/auth/signup", `{"name":`, http.StatusBadRequest},
		{"password too long", "/api/auth/signup", `{"name":"C","email":"c@example.com","password":"` + strings.Repeat("p", 80) + `"}`, http.StatusBadRequest},
		{"wrong password", "/api/auth/login", `{"email":"a@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", "/api/auth/login", `{"email":"z@example.com","password":"pw"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := h.do(http.MethodPost, tc.path, tc.body, nil)
			assert.Equal(t, tc.status, recorder.Code)
			assert.NotEmpty(t, decodeBody[messageBody](t, recorder).Message)
		})
	}
}

func TestMeForVanishedUser(t *testing.T) {
	h := newHarness(t, "")
	token, err := h.issuer.Issue("ghost")
	require.NoError(t, err)

	recorder := h.do(http.MethodGet, "/api/auth/me", "", authHeader("Bearer "+token))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBearerMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("user-7")
	require.NoError(t, err)

	var seen string
	handler := RequireBearer(issuer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid", "Bearer " + token, http.StatusNoContent, ""},
		{"scheme is case insensitive", "bearer " + token, http.StatusNoContent, ""},
		{"missing header", "", http.StatusUnauthorized, "No token provided"},
		{"wrong scheme", "Token xyz", http.StatusUnauthorized, "Malformed token"},
		{"three parts", "Bearer a b", http.StatusUnauthorized, "Token error"},
		{"one part", "Bearer", http.StatusUnauthorized, "Token error"},
		{"bad signature", "Bearer " + token + "x", http.StatusUnauthorized, "Invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				request.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tc.status, recorder.Code)
			if tc.message == "" {
				assert.Equal(t, "user-7", seen)
				return
			}
			assert.Empty(t, seen)
			assert.Equal(t, tc.message, decodeBody[messageBody](t, recorder).Message)
		})
	}
}

func TestChatRelaysUpstream(t *testing.T) {
	var forwarded ChatRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&forwarded))
		writeJSON(w, http.StatusOK, ChatResponse{Reply: "Breathe slowly."})
	}))
	defer upstream.Close()
	h := newHarness(t, upstream.URL+"/chat")

	recorder := h.do(http.MethodPost, "/api/chat", `{"message":"I feel tense","userId":"u1"}`, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Breathe slowly.", decodeBody[ChatResponse](t, recorder).Reply)
	assert.Equal(t, ChatRequest{Message: "I feel tense", UserID: "u1"}, forwarded)
}

func TestChatForwardsUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "model loading"})
	}))
	defer upstream.Close()
	h := newHarness(t, upstream.URL+"/chat")

	recorder := h.do(http.MethodPost, "/api/chat", `{"message":"hi"}`, nil)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.JSONEq(t, `{"detail":"model loading"}`, recorder.Body.String())
}

func TestChatUpstreamFailureWithoutJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()
	h := newHarness(t, upstream.URL+"/chat")

	recorder := h.do(http.MethodPost, "/api/chat", `{"message":"hi"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "Upstream error", decodeBody[errorBody](t, recorder).Error)
}

func TestChatTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL + "/chat"
	upstream.Close()
	h := newHarness(t, target)

	recorder := h.do(http.MethodPost, "/api/chat", `{"message":"hi"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "Internal server error", decodeBody[errorBody](t, recorder).Error)
}

func TestChatRejectsInvalidBody(t *testing.T) {
	h := newHarness(t, "")
	recorder := h.do(http.MethodPost, "/api/chat", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGamesDirectory(t *testing.T) {
	h := newHarness(t, "")

	recorder := h.do(http.MethodGet, "/api/games", "", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	games := decodeBody[gamesResponse](t, recorder).Games
	require.Len(t, games, 6)
	assert.Equal(t, Game{ID: 1, Title: "Chess", Endpoint: "https://games.example.com/chess"}, games["1"])
	assert.Equal(t, Game{ID: 3, Title: "Sliding Puzzle", Endpoint: ""}, games["3"])
	assert.Equal(t, "https://games.example.com/ttt", games["6"].Endpoint)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, "")
	recorder := h.do(http.MethodOptions, "/api/chat", "", nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverPanics(t *testing.T) {
	handler := recoverPanics(slog.New(slog.NewTextHandler(io.Discard, nil)), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{ChatURL: "http://x/chat"})
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		}), slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	response, err := http.Get("http://" + listener.Addr().String() + "/")
	require.NoError(t, err)
	_ = response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
