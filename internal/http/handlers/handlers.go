package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func actor(c *gin.Context) (uuid.UUID, bool) {
	id, err := services.ActingUser(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// matchesActor rejects a body-supplied user id that differs from the token's.
func matchesActor(c *gin.Context, actorID uuid.UUID, claimed string) bool {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return true
	}
	id, err := uuid.Parse(claimed)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return false
	}
	if err := services.RequireSelf(actorID, id); err != nil {
		response.RespondAPIError(c, err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

// rewardFields is the authoritative post-reward state every rewarding
// endpoint returns so clients replace rather than recompute.
func rewardFields(out *services.RewardOutcome) gin.H {
	if out == nil || out.Profile == nil {
		return gin.H{}
	}
	achievements := out.Achievements
	if achievements == nil {
		achievements = []*types.Achievement{}
	}
	return gin.H{
		"reward":        out.RewardView(),
		"stats":         out.Result.Stats,
		"version":       out.Profile.Version,
		"levels_gained": out.Result.LevelsGained,
		"leveled_up":    out.Result.LeveledUp,
		"ignored_keys":  nonNil(out.Result.IgnoredKeys),
		"achievements":  achievements,
	}
}

func withReward(out *services.RewardOutcome, extra gin.H) gin.H {
	payload := rewardFields(out)
	for k, v := range extra {
		payload[k] = v
	}
	payload["success"] = true
	return payload
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
