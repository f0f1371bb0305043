package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// SnippetHandler serves the snippet lifecycle endpoints: submission,
// browsing, moderation, voting, favorites and comments.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleSubmit creates a new snippet in the moderation queue.
// POST /api/snippets/submit
func (h *SnippetHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"problemDescription"`
		Language    string   `json:"language"`
		Code        string   `json:"code"`
		Tags        []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	snippet, err := h.snippets.Submit(r.Context(), userID,
		req.Title, req.Description, req.Language, req.Code, req.Tags)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{
		"snippet": snippet,
		"message": "snippet submitted for review",
	})
}

// HandleList returns approved snippets, filtered and sorted by query
// parameters.
// GET /api/snippets?lang=&tag=&search=&sort=&page=&limit=
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// The documented parameter is lang; language is accepted as an alias.
	lang := q.Get("lang")
	if lang == "" {
		lang = q.Get("language")
	}

	limit := queryInt(q.Get("limit"), service.DefaultListLimit)
	filter := repository.SnippetFilter{
		Language: lang,
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		Limit:    limit,
		Offset:   pageOffset(q.Get("page"), limit),
	}

	snippets, err := h.snippets.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// HandleGet returns a single snippet and counts the view.
// GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.Get(r.Context(), r.PathValue("id"), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"snippet": snippet})
}

// HandleUpdate applies a partial edit. Absent fields stay untouched; a
// non-admin edit sends the snippet back to moderation.
// PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"problemDescription"`
		Language    *string   `json:"language"`
		Code        *string   `json:"code"`
		Tags        *[]string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	patch := model.SnippetPatch{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Code:        req.Code,
		Tags:        req.Tags,
	}
	snippet, err := h.snippets.Edit(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"snippet": snippet})
}

// HandleDelete removes a snippet. The service enforces author-or-admin.
// DELETE /api/snippets/{id}, DELETE /api/snippets/user/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Remove(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "snippet deleted"})
}

// HandlePending returns the moderation queue, oldest first. Admin only.
// GET /api/snippets/pending/all
func (h *SnippetHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), service.DefaultListLimit)

	snippets, err := h.snippets.ListPending(r.Context(), userID, limit, pageOffset(q.Get("page"), limit))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// HandleApprove approves a pending snippet. Admin only.
// PATCH /api/snippets/approve/{id}
func (h *SnippetHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Approve(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "snippet approved"})
}

// HandleReject rejects a pending snippet. Admin only.
// PATCH /api/snippets/reject/{id}
func (h *SnippetHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Reject(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "snippet rejected"})
}

// HandleUpvote toggles the caller's upvote.
// PATCH /api/snippets/upvote/{id}
func (h *SnippetHandler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	count, voted, err := h.snippets.ToggleUpvote(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"upvotes": count,
		"voted":   voted,
	})
}

// HandleFavorite toggles the caller's favorite.
// PATCH /api/snippets/favorite/{id}
func (h *SnippetHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	favorited, err := h.snippets.ToggleFavorite(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"favorited": favorited})
}

// HandleAddComment attaches a comment to a snippet.
// POST /api/snippets/{id}/comment
func (h *SnippetHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.snippets.AddComment(r.Context(), r.PathValue("id"), userID, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"comment": comment})
}

// HandleDeleteComment removes a comment. Comment author or admin only.
// DELETE /api/snippets/{id}/comment/{commentID}
func (h *SnippetHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.snippets.DeleteComment(r.Context(), userID, r.PathValue("id"), r.PathValue("commentID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "comment deleted"})
}

// queryInt parses a positive integer query parameter, falling back to def.
func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// pageOffset converts 1-based page numbers to a row offset.
func pageOffset(raw string, limit int) int {
	return (queryInt(raw, 1) - 1) * limit
}
