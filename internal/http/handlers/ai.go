package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type AIHandler struct {
	oracle services.OracleService
	mirror services.MirrorService
}

func NewAIHandler(oracle services.OracleService, mirror services.MirrorService) *AIHandler {
	return &AIHandler{oracle: oracle, mirror: mirror}
}

// POST /api/ai/identity
func (h *AIHandler) Identity(c *gin.Context) {
	var req struct {
		Manifesto string `json:"manifesto"`
	}
	if !bindJSON(c, &req) {
		return
	}
	verdict, err := h.oracle.AnalyzeIdentity(c.Request.Context(), req.Manifesto)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, verdict)
}

// GET /api/ai/wisdom
func (h *AIHandler) Wisdom(c *gin.Context) {
	w, err := h.oracle.DailyWisdom(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, w)
}

// POST /api/ai/mysterious-name
func (h *AIHandler) MysteriousName(c *gin.Context) {
	response.RespondOK(c, gin.H{"name": h.oracle.MysteriousName(c.Request.Context())})
}

// POST /api/ai/advisor
func (h *AIHandler) Advisor(c *gin.Context) {
	var req struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.oracle.Advise(c.Request.Context(), req.Type, req.Message)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": reply})
}

// POST /api/ai/mirror/scenario
func (h *AIHandler) MirrorScenario(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	sc, err := h.mirror.Scenario(c.Request.Context(), me)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, sc)
}

// POST /api/ai/mirror/evaluate
func (h *AIHandler) MirrorEvaluate(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		Situation  string `json:"situation"`
		ChoiceA    string `json:"choiceA"`
		ChoiceB    string `json:"choiceB"`
		Choice     string `json:"choice"`
		TestedStat string `json:"testedStat"`
	}
	if !bindJSON(c, &req) {
		return
	}
	verdict, err := h.mirror.Evaluate(c.Request.Context(), me, services.MirrorChoice{
		Situation:  req.Situation,
		ChoiceA:    req.ChoiceA,
		ChoiceB:    req.ChoiceB,
		Choice:     req.Choice,
		TestedStat: req.TestedStat,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	extra := gin.H{"outcome": verdict.Outcome, "artifact": verdict.Artifact}
	if verdict.Result != nil {
		extra["statChange"] = verdict.Result.RewardView()["stats"]
	}
	response.RespondOK(c, withReward(verdict.Result, extra))
}
