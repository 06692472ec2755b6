package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type QuestHandler struct {
	quests services.QuestService
}

func NewQuestHandler(quests services.QuestService) *QuestHandler {
	return &QuestHandler{quests: quests}
}

// GET /api/quests/:userId
func (h *QuestHandler) List(c *gin.Context) {
	userID, ok := uuidParam(c, "userId", "invalid_user_id")
	if !ok {
		return
	}
	quests, err := h.quests.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(quests))
}

// POST /api/quests/create
func (h *QuestHandler) Create(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		UserID         string   `json:"user_id"`
		Text           string   `json:"text"`
		Description    string   `json:"description"`
		Difficulty     string   `json:"difficulty"`
		XPReward       *float64 `json:"xp_reward"`
		ExpiresInHours *float64 `json:"expires_in_hours"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	quest, err := h.quests.Create(c.Request.Context(), services.CreateQuestInput{
		UserID:         me,
		Text:           req.Text,
		Description:    req.Description,
		Difficulty:     req.Difficulty,
		XPReward:       req.XPReward,
		ExpiresInHours: req.ExpiresInHours,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"success": true, "quest": quest})
}

// POST /api/quests/:id/complete
func (h *QuestHandler) Complete(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	questID, ok := uuidParam(c, "id", "invalid_quest_id")
	if !ok {
		return
	}
	done, err := h.quests.Complete(c.Request.Context(), me, questID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, withReward(done.Outcome, gin.H{"quest": done.Quest}))
}

// POST /api/ai/quest/generate
func (h *QuestHandler) Generate(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		UserID string   `json:"userId"`
		Goals  []string `json:"goals"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	gen, err := h.quests.Generate(c.Request.Context(), me, req.Goals)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":  true,
		"quests":   nonNil(gen.Quests),
		"message":  gen.Message,
		"fallback": gen.Fallback,
	})
}
