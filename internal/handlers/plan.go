package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
)

type PlanHandler struct {
	recService services.RecommendationService
}

func NewPlanHandler(recService services.RecommendationService) *PlanHandler {
	return &PlanHandler{recService: recService}
}

type buildPlanBody struct {
	PlanType string `json:"plan_type"`
	Days     int    `json:"days"`
}

func (ph *PlanHandler) BuildPlan(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body buildPlanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	plan, err := ph.recService.BuildStudyPlan(c.Request.Context(), studentID, body.PlanType, body.Days)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"plan": plan})
}
