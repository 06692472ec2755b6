package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// POST /api/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		TargetUserID *uuid.UUID `json:"target_user_id"`
		TargetPostID *uuid.UUID `json:"target_post_id"`
		Reason       string     `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rep, err := h.reports.Submit(c.Request.Context(), services.ReportInput{
		ReporterID:   me,
		TargetUserID: req.TargetUserID,
		TargetPostID: req.TargetPostID,
		Reason:       req.Reason,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"success": true, "report": rep})
}
