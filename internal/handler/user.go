package handler

import (
	"log/slog"
	"net/http"

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// UserHandler serves public profiles and the caller's own profile surface.
type UserHandler struct {
	users    *service.UserService
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, snippets *service.SnippetService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, snippets: snippets, logger: logger}
}

// HandleProfile returns a public profile with aggregate stats and rank.
// GET /api/users/{username}
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"profile": profile})
}

// HandleUserSnippets lists a user's snippets. The author sees their own
// pending and rejected work; everyone else gets the approved subset.
// GET /api/users/{username}/snippets
func (h *UserHandler) HandleUserSnippets(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), service.DefaultListLimit)

	snippets, err := h.users.Snippets(r.Context(), r.PathValue("username"), viewerID,
		limit, pageOffset(q.Get("page"), limit))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// HandleFavorites lists the caller's favorited snippets.
// GET /api/users/me/favorites
func (h *UserHandler) HandleFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), service.DefaultListLimit)

	favorites, err := h.snippets.Favorites(r.Context(), userID, limit, pageOffset(q.Get("page"), limit))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"snippets": favorites,
		"count":    len(favorites),
	})
}

// HandleUpdateProfile updates the caller's bio and GitHub link.
// PATCH /api/users/me/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Bio           string `json:"bio"`
		GitHubProfile string `json:"githubProfile"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req.Bio, req.GitHubProfile)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"user": user})
}
