package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
)

// stubExecutor returns a canned result and records the request it saw.
type stubExecutor struct {
	result  *executor.Result
	err     error
	lastReq executor.Request
}

func (s *stubExecutor) Execute(_ context.Context, req executor.Request) (*executor.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

var _ executor.Executor = (*stubExecutor)(nil)

func newPlaygroundHandler(exec executor.Executor) *PlaygroundHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPlaygroundHandler(exec, nil, logger)
}

func executeRequest(t *testing.T, h *PlaygroundHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/playground/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleExecute(rec, req)
	return rec
}

func TestHandleExecuteSuccess(t *testing.T) {
	stub := &stubExecutor{result: &executor.Result{
		Output:   "hello\n",
		ExitCode: 0,
		Duration: 120 * time.Millisecond,
	}}
	h := newPlaygroundHandler(stub)

	rec := executeRequest(t, h, `{"language":"python","code":"print('hello')","stdin":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool    `json:"success"`
		Output     *string `json:"output"`
		Error      *string `json:"error"`
		ExitCode   int     `json:"exitCode"`
		DurationMs int64   `json:"durationMs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Output)
	assert.Equal(t, "hello\n", *resp.Output)
	assert.Nil(t, resp.Error, "a clean run carries no error")
	assert.Equal(t, int64(120), resp.DurationMs)

	// The request reached the backend untouched.
	assert.Equal(t, "python", stub.lastReq.Language)
	assert.Equal(t, "x", stub.lastReq.Stdin)
}

func TestHandleExecuteRuntimeError(t *testing.T) {
	stub := &stubExecutor{result: &executor.Result{
		Output:   "partial output\n",
		Error:    "Traceback (most recent call last): boom",
		ExitCode: 1,
	}}
	h := newPlaygroundHandler(stub)

	rec := executeRequest(t, h, `{"language":"python","code":"boom()"}`)
	require.Equal(t, http.StatusOK, rec.Code, "a failed run is still a successful proxy call")

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "partial output\n", body["output"])
	assert.Contains(t, body["error"], "Traceback")
}

func TestHandleExecuteEmptyCode(t *testing.T) {
	h := newPlaygroundHandler(&stubExecutor{})

	rec := executeRequest(t, h, `{"language":"python","code":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "validation_error", body["error"])
}

func TestHandleExecuteInvalidJSON(t *testing.T) {
	h := newPlaygroundHandler(&stubExecutor{})

	rec := executeRequest(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExecuteUnsupportedLanguage(t *testing.T) {
	stub := &stubExecutor{err: executor.ErrUnsupportedLanguage}
	h := newPlaygroundHandler(stub)

	rec := executeRequest(t, h, `{"language":"cobol","code":"DISPLAY 'HI'."}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "unsupported_language", body["error"])
}

func TestHandleExecuteBackendDown(t *testing.T) {
	stub := &stubExecutor{err: executor.ErrServiceUnavailable}
	h := newPlaygroundHandler(stub)

	rec := executeRequest(t, h, `{"language":"python","code":"print(1)"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "service_unavailable", body["error"])
}

func TestHandleExecuteNoBackendConfigured(t *testing.T) {
	h := newPlaygroundHandler(nil)

	rec := executeRequest(t, h, `{"language":"python","code":"print(1)"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleForkAcceptsFullPayload(t *testing.T) {
	api := newTestAPI(t)
	_, adaToken := api.user(t, "ada", model.RoleUser)
	_, graceToken := api.user(t, "grace", model.RoleUser)

	rec := api.authed(t, api.snippets.HandleSubmit, http.MethodPost,
		"/api/snippets/submit", adaToken, submitBody("Hello"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	snippetID := decode(t, rec)["snippet"].(map[string]any)["id"].(string)

	rec = api.authed(t, api.playground.HandleFork, http.MethodPost,
		"/api/playground/fork", graceToken, map[string]any{
			"snippetId":    snippetID,
			"modifiedCode": `print("hi, faster")`,
			"changes":      "sped it up",
			"description":  "a leaner greeting",
			"testResults":  "3 passed",
		}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	fork := decode(t, rec)["fork"].(map[string]any)
	assert.Equal(t, "a leaner greeting", fork["description"])
	assert.Equal(t, "sped it up", fork["changes"])
	assert.Equal(t, "pending", fork["status"])
}

func TestHandleForkRequiresChanges(t *testing.T) {
	api := newTestAPI(t)
	_, adaToken := api.user(t, "ada", model.RoleUser)

	rec := api.authed(t, api.snippets.HandleSubmit, http.MethodPost,
		"/api/snippets/submit", adaToken, submitBody("Hello"), nil)
	snippetID := decode(t, rec)["snippet"].(map[string]any)["id"].(string)

	rec = api.authed(t, api.playground.HandleFork, http.MethodPost,
		"/api/playground/fork", adaToken, map[string]any{
			"snippetId":    snippetID,
			"modifiedCode": `print("hi")`,
		}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "changes", body["field"])
}
