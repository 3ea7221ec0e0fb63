package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type MasteryHandler struct {
	masteryService services.MasteryService
}

func NewMasteryHandler(masteryService services.MasteryService) *MasteryHandler {
	return &MasteryHandler{masteryService: masteryService}
}

func (mh *MasteryHandler) GetMastery(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	conceptID, err := uuid.Parse(c.Param("conceptID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	record, err := mh.masteryService.GetMastery(c.Request.Context(), studentID, conceptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if record == nil {
		// Nothing attempted yet reads as a zero score, not a 404.
		record = &types.ConceptMastery{StudentID: studentID, ConceptID: conceptID}
	}
	RespondOK(c, gin.H{"mastery": record})
}

func (mh *MasteryHandler) ListByStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	records, err := mh.masteryService.ListMastery(c.Request.Context(), studentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"mastery": records})
}

func (mh *MasteryHandler) Recalculate(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := mh.masteryService.RecalculateStudent(c.Request.Context(), studentID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "recalculated"})
}

func (mh *MasteryHandler) LearningGaps(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	threshold := parseFloatQuery(c, "threshold", 0)
	gaps, err := mh.masteryService.DetectLearningGaps(c.Request.Context(), studentID, threshold)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"gaps": gaps})
}

func (mh *MasteryHandler) MistakePatterns(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	conceptID, err := uuid.Parse(c.Param("conceptID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	report, err := mh.masteryService.MistakePatterns(c.Request.Context(), studentID, conceptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

func parseFloatQuery(c *gin.Context, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
