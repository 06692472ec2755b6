package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type ProfileHandler struct {
	profiles     services.ProfileService
	achievements services.AchievementService
}

func NewProfileHandler(profiles services.ProfileService, achievements services.AchievementService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, achievements: achievements}
}

// GET /api/profile/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_profile_id")
	if !ok {
		return
	}
	view, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/search/users?q=&limit=
func (h *ProfileHandler) Search(c *gin.Context) {
	found, err := h.profiles.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, found)
}

// POST /api/profile/:id/update
func (h *ProfileHandler) Update(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_profile_id")
	if !ok {
		return
	}
	var patch services.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	view, err := h.profiles.Update(c.Request.Context(), me, id, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/profile/:id/follow
func (h *ProfileHandler) ToggleFollow(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_profile_id")
	if !ok {
		return
	}
	state, err := h.profiles.ToggleFollow(c.Request.Context(), me, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "following": state.Following, "followers_count": state.FollowersCount})
}

// DELETE /api/profile/:id
func (h *ProfileHandler) Delete(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_profile_id")
	if !ok {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), me, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/rewards/:userId?limit=
func (h *ProfileHandler) RewardHistory(c *gin.Context) {
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
	events, err := h.achievements.History(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": nonNil(events)})
}
