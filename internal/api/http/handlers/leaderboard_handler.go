package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/api/dto"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/service"
)

// LeaderboardHandler serves XP standings and quotes for the dashboard.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	quotes      *service.QuoteService
}

// NewLeaderboardHandler constructs handler.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, quotes *service.QuoteService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, quotes: quotes}
}

// Top handles GET /api/leaderboard. Known callers also get their own standing.
func (h *LeaderboardHandler) Top(c *fiber.Ctx) error {
	viewer, _ := auth.IdentityFromContext(c)
	board, err := h.leaderboard.Top(c.UserContext(), int64(c.QueryInt("limit", 10)), viewer)
	if err != nil {
		return err
	}

	entries := make([]dto.LeaderboardEntryResponse, 0, len(board.Entries))
	for _, e := range board.Entries {
		entries = append(entries, entryResponse(e))
	}
	data := fiber.Map{"entries": entries}
	if board.Me != nil {
		data["me"] = entryResponse(*board.Me)
	}
	return ok(c, http.StatusOK, data)
}

// RandomQuote handles GET /api/quotes/random.
func (h *LeaderboardHandler) RandomQuote(c *fiber.Ctx) error {
	q, err := h.quotes.Random(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"quote": dto.QuoteResponse{Text: q.Text, Author: q.Author}})
}

func entryResponse(e domain.LeaderboardEntry) dto.LeaderboardEntryResponse {
	return dto.LeaderboardEntryResponse{UserID: e.UserID, XP: e.XP, Rank: e.Rank}
}
