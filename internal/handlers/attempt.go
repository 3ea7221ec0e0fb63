package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
)

type AttemptHandler struct {
	masteryService services.MasteryService
}

func NewAttemptHandler(masteryService services.MasteryService) *AttemptHandler {
	return &AttemptHandler{masteryService: masteryService}
}

// RecordAttempt grades one answered question and returns the refreshed
// mastery score for the question's concept.
func (ah *AttemptHandler) RecordAttempt(c *gin.Context) {
	var input services.RecordAttemptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := ah.masteryService.RecordAttempt(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"result": result})
}

func (ah *AttemptHandler) ListByStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	limit := parseIntQuery(c, "limit", 0)
	attempts, err := ah.masteryService.RecentAttempts(c.Request.Context(), studentID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"attempts": attempts})
}
