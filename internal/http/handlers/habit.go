package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type HabitHandler struct {
	habits services.HabitService
}

func NewHabitHandler(habits services.HabitService) *HabitHandler {
	return &HabitHandler{habits: habits}
}

// GET /api/habits/:userId
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := uuidParam(c, "userId", "invalid_user_id")
	if !ok {
		return
	}
	habits, err := h.habits.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(habits))
}

// POST /api/habits
func (h *HabitHandler) Create(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	habit, err := h.habits.Create(c.Request.Context(), me, req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, habit)
}

// POST /api/habits/track
func (h *HabitHandler) Track(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		UserID  string `json:"user_id"`
		HabitID string `json:"habit_id"`
		Action  string `json:"action"`
	}
	if !bindJSON(c, &req) || !matchesActor(c, me, req.UserID) {
		return
	}
	habitID, err := uuid.Parse(strings.TrimSpace(req.HabitID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_habit_id", err)
		return
	}
	tr, err := h.habits.Track(c.Request.Context(), me, habitID, req.Action)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	xp := 0
	if tr.Outcome != nil {
		xp = tr.Outcome.Reward.XP
	}
	response.RespondOK(c, withReward(tr.Outcome, gin.H{
		"habit":    tr.Habit,
		"log":      tr.Log,
		"feedback": tr.Feedback,
		"xp":       xp,
	}))
}

// GET /api/habits/:userId/:habitId/logs
func (h *HabitHandler) History(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId", "invalid_user_id")
	if !ok {
		return
	}
	if err := services.RequireSelf(me, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	habitID, ok := uuidParam(c, "habitId", "invalid_habit_id")
	if !ok {
		return
	}
	logs, err := h.habits.History(c.Request.Context(), userID, habitID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(logs))
}
