package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type AchievementHandler struct {
	achievements services.AchievementService
}

func NewAchievementHandler(achievements services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// GET /api/achievements/:userId
func (h *AchievementHandler) List(c *gin.Context) {
	userID, ok := uuidParam(c, "userId", "invalid_user_id")
	if !ok {
		return
	}
	list, err := h.achievements.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(list))
}

// POST /api/achievements/calculate
func (h *AchievementHandler) Calculate(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
		Text   string `json:"text"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	res, err := h.achievements.LogFeat(c.Request.Context(), me, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	payload := gin.H{
		"systemMessage": res.SystemMessage,
		"achievement":   res.Achievement,
	}
	if res.Outcome != nil {
		payload["xpGained"] = res.Outcome.Reward.XP
		payload["statsIncreased"] = res.Outcome.RewardView()["stats"]
	}
	response.RespondOK(c, withReward(res.Outcome, payload))
}
