package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
)

type AnalyticsHandler struct {
	masteryService services.MasteryService
}

func NewAnalyticsHandler(masteryService services.MasteryService) *AnalyticsHandler {
	return &AnalyticsHandler{masteryService: masteryService}
}

func (ah *AnalyticsHandler) StudentPerformance(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	summary, err := ah.masteryService.StudentPerformance(c.Request.Context(), studentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"performance": summary})
}
