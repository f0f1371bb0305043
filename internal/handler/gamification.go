package handler

import (
	"log/slog"
	"net/http"

	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// GamificationHandler serves the leaderboard, the badge catalog and
// per-user gamification stats.
type GamificationHandler struct {
	game     *service.GamificationService
	profiles *service.UserService
	logger   *slog.Logger
}

// NewGamificationHandler creates a GamificationHandler.
func NewGamificationHandler(game *service.GamificationService, profiles *service.UserService, logger *slog.Logger) *GamificationHandler {
	return &GamificationHandler{game: game, profiles: profiles, logger: logger}
}

// HandleLeaderboard returns the top users for a timeframe.
// GET /api/gamification/leaderboard?timeframe=all|week|month&limit=
func (h *GamificationHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	users, err := h.game.Leaderboard(r.Context(), q.Get("timeframe"), queryInt(q.Get("limit"), 0))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"leaderboard": users,
		"count":       len(users),
	})
}

// HandleBadges returns the fixed badge catalog.
// GET /api/gamification/badges
func (h *GamificationHandler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, envelope{"badges": h.game.Badges()})
}

// HandleStats returns a user's gamification state: points, level, badges,
// streak and rank.
// GET /api/gamification/stats/{username}
func (h *GamificationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"username": profile.User.Username,
		"points":   profile.User.Points,
		"level":    profile.User.Level,
		"badges":   profile.User.Badges,
		"streak":   profile.User.Streak,
		"rank":     profile.Rank,
		"stats":    profile.Stats,
	})
}
