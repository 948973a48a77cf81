// Package client talks to the MindHaven server on behalf of the desktop app.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"mindhaven/internal/storage"
)

const (
	// ChatEmptyReply is shown when the companion answers without text.
	ChatEmptyReply = "Sorry, I could not get a response."
	// ChatUnavailableReply is shown when the companion cannot be reached.
	ChatUnavailableReply = "Sorry, something went wrong connecting to the AI companion."
	// AnonymousUserID is the conversation id sent when none is given.
	AnonymousUserID = "anon"
)

// Identity is the session store the client reads tokens from and clears
// on 401 responses.
type Identity interface {
	Token() string
	Remember(token string, user storage.User) error
	Clear() error
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("server returned %d", err.Status)
	}
	return fmt.Sprintf("server returned %d: %s", err.Status, err.Message)
}

// Message returns the server-provided message or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Game is one entry of the game directory.
type Game struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Endpoint string `json:"endpoint"`
}

// Client calls the MindHaven API.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	identity   Identity
}

// New creates a client for baseURL. identity may be nil for anonymous use.
func New(baseURL string, identity Identity, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		identity:   identity,
	}
}

// SetBaseURL points later requests at another server.
func (client *Client) SetBaseURL(baseURL string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.baseURL = strings.TrimRight(baseURL, "/")
}

// BaseURL returns the server the client talks to.
func (client *Client) BaseURL() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.baseURL
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  storage.User `json:"user"`
}

// Login signs in and remembers the returned identity.
func (client *Client) Login(ctx context.Context, email, password string) (storage.User, error) {
	var session sessionResponse
	body := map[string]string{"email": email, "password": password}
	if err := client.do(ctx, http.MethodPost, "/api/auth/login", body, &session); err != nil {
		return storage.User{}, err
	}
	return session.User, client.remember(session)
}

// Signup registers and remembers the returned identity.
func (client *Client) Signup(ctx context.Context, name, email, password string) (storage.User, error) {
	var session sessionResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := client.do(ctx, http.MethodPost, "/api/auth/signup", body, &session); err != nil {
		return storage.User{}, err
	}
	return session.User, client.remember(session)
}

// Me refreshes the signed-in user's profile.
func (client *Client) Me(ctx context.Context) (storage.User, error) {
	var response struct {
		User storage.User `json:"user"`
	}
	if err := client.do(ctx, http.MethodGet, "/api/auth/me", nil, &response); err != nil {
		return storage.User{}, err
	}
	return response.User, nil
}

// Chat sends message to the companion. It always returns a reply to show;
// the error reports whether that reply is a fallback. conversationID is
// sent as userId, which keys the upstream history.
func (client *Client) Chat(ctx context.Context, message, conversationID string) (string, error) {
	if conversationID == "" {
		conversationID = AnonymousUserID
	}
	var response struct {
		Reply string `json:"reply"`
	}
	body := map[string]string{"message": message, "userId": conversationID}
	if err := client.do(ctx, http.MethodPost, "/api/chat", body, &response); err != nil {
		return ChatUnavailableReply, err
	}
	if strings.TrimSpace(response.Reply) == "" {
		return ChatEmptyReply, nil
	}
	return response.Reply, nil
}

// Games returns the game directory ordered by id.
func (client *Client) Games(ctx context.Context) ([]Game, error) {
	var response struct {
		Games map[string]Game `json:"games"`
	}
	if err := client.do(ctx, http.MethodGet, "/api/games", nil, &response); err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(response.Games))
	for _, game := range response.Games {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (client *Client) remember(session sessionResponse) error {
	if client.identity == nil {
		return nil
	}
	if err := client.identity.Remember(session.Token, session.User); err != nil {
		return fmt.Errorf("remember identity: %w", err)
	}
	return nil
}

func (client *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if client.identity != nil {
		if token := client.identity.Token(); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized && client.identity != nil {
		_ = client.identity.Clear()
	}

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeAPIError(response.StatusCode, payload)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, payload []byte) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(payload, &body) == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
