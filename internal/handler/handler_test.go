package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/mail"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository/sqlite"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// testAPI wires handlers over a real in-memory database so tests exercise
// the full request path: token extraction, path values, service rules and
// the response envelope.
type testAPI struct {
	db     *sqlite.DB
	tokens *auth.TokenService

	auth       *AuthHandler
	snippets   *SnippetHandler
	users      *UserHandler
	game       *GamificationHandler
	playground *PlaygroundHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	game := service.NewGamificationService(db, nil, logger)
	snippetSvc := service.NewSnippetService(db, db, game, logger)
	forkSvc := service.NewForkService(db, db, db, game, logger)
	userSvc := service.NewUserService(db, db, game, logger)
	authSvc := service.NewAuthService(db, tokens, passwords, mail.NewLogMailer(logger), "http://localhost:5173", logger)

	return &testAPI{
		db:         db,
		tokens:     tokens,
		auth:       NewAuthHandler(authSvc, nil, "http://localhost:5173", logger),
		snippets:   NewSnippetHandler(snippetSvc, logger),
		users:      NewUserHandler(userSvc, snippetSvc, logger),
		game:       NewGamificationHandler(game, userSvc, logger),
		playground: NewPlaygroundHandler(nil, forkSvc, logger),
	}
}

// user creates an account directly in the database and returns it with a
// valid bearer token.
func (a *testAPI) user(t *testing.T, username string, role model.Role) (*model.User, string) {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, a.db.CreateUser(context.Background(), u))

	token, err := a.tokens.Generate(u.ID)
	require.NoError(t, err)
	return u, token
}

// request builds a JSON request with optional bearer token and path values,
// runs it through the given handler behind the auth middleware, and returns
// the recorder.
func (a *testAPI) request(t *testing.T, h http.HandlerFunc, method, target, token string, body any, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	auth.OptionalAuth(a.tokens)(h).ServeHTTP(rec, req)
	return rec
}

// authed is like request but routes through RequireAuth, so requests
// without a valid token get a 401 before the handler runs.
func (a *testAPI) authed(t *testing.T, h http.HandlerFunc, method, target, token string, body any, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	auth.RequireAuth(a.tokens)(h).ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
