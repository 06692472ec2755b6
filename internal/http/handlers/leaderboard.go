package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type LeaderboardHandler struct {
	board services.LeaderboardService
}

func NewLeaderboardHandler(board services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// GET /api/leaderboard?sort=&limit=
func (h *LeaderboardHandler) Top(c *gin.Context) {
	page, err := h.board.Top(c.Request.Context(), c.Query("sort"), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}
