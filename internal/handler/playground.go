package handler

import (
	"log/slog"
	"net/http"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// PlaygroundHandler serves code execution and the fork workflow.
type PlaygroundHandler struct {
	exec   executor.Executor // nil when no execution backend is configured
	forks  *service.ForkService
	logger *slog.Logger
}

// NewPlaygroundHandler creates a PlaygroundHandler. exec may be nil, in
// which case execution requests answer 503.
func NewPlaygroundHandler(exec executor.Executor, forks *service.ForkService, logger *slog.Logger) *PlaygroundHandler {
	return &PlaygroundHandler{exec: exec, forks: forks, logger: logger}
}

// HandleExecute runs code through the configured execution backend. The
// response mirrors the backend's normalized result: exactly one of output
// and error is set for a failed run, output only for a successful one.
// POST /api/playground/execute
func (h *PlaygroundHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if h.exec == nil {
		writeError(w, h.logger, executor.ErrServiceUnavailable)
		return
	}

	var req executor.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "code is required"))
		return
	}

	result, err := h.exec.Execute(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Clients distinguish "empty" from "absent": null means the run produced
	// nothing on that channel.
	var output, runError *string
	if result.Output != "" {
		output = &result.Output
	}
	if result.Error != "" {
		runError = &result.Error
	}
	writeOK(w, http.StatusOK, envelope{
		"output":     output,
		"error":      runError,
		"exitCode":   result.ExitCode,
		"durationMs": result.Duration.Milliseconds(),
	})
}

// HandleFork proposes a modified version of a snippet.
// POST /api/playground/fork
func (h *PlaygroundHandler) HandleFork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		SnippetID   string `json:"snippetId"`
		Code        string `json:"modifiedCode"`
		Changes     string `json:"changes"`
		Description string `json:"description"`
		TestResults string `json:"testResults"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	fork, err := h.forks.Fork(r.Context(), userID, req.SnippetID, req.Code, req.Changes, req.Description, req.TestResults)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"fork": fork})
}

// HandleListForks returns a snippet's forks, most voted first.
// GET /api/playground/forks/{id}  (id is the snippet ID)
func (h *PlaygroundHandler) HandleListForks(w http.ResponseWriter, r *http.Request) {
	forks, err := h.forks.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"forks": forks,
		"count": len(forks),
	})
}

// HandleVoteFork toggles the caller's vote on a fork.
// PATCH /api/playground/fork/{id}/vote
func (h *PlaygroundHandler) HandleVoteFork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	count, voted, err := h.forks.ToggleVote(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"votes": count,
		"voted": voted,
	})
}

// HandleAcceptFork merges a fork into its parent snippet. Parent owner
// only; a second accept of the same fork answers 409.
// PATCH /api/playground/fork/{id}/accept
func (h *PlaygroundHandler) HandleAcceptFork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	fork, err := h.forks.Accept(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"fork":    fork,
		"message": "fork merged, the snippet is back in review",
	})
}

// HandleRejectFork declines a fork, leaving the parent untouched.
// PATCH /api/playground/fork/{id}/reject
func (h *PlaygroundHandler) HandleRejectFork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	fork, err := h.forks.Reject(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"fork": fork})
}

// HandleDeleteFork removes a fork. Forker or admin only.
// DELETE /api/playground/fork/{id}
func (h *PlaygroundHandler) HandleDeleteFork(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.forks.Remove(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "fork deleted"})
}
