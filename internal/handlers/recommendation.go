package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
)

type RecommendationHandler struct {
	recService services.RecommendationService
}

func NewRecommendationHandler(recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

func (rh *RecommendationHandler) Next(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	threshold := parseFloatQuery(c, "threshold", 0)
	rec, err := rh.recService.Next(c.Request.Context(), studentID, threshold)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if rec == nil {
		RespondOK(c, gin.H{"recommendation": nil, "message": "no unlockable topics"})
		return
	}
	RespondOK(c, gin.H{"recommendation": rec})
}

func (rh *RecommendationHandler) Top(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	n := parseIntQuery(c, "n", 5)
	threshold := parseFloatQuery(c, "threshold", 0)
	recs, err := rh.recService.TopN(c.Request.Context(), studentID, n, threshold)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

func (rh *RecommendationHandler) Concepts(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topicID, err := uuid.Parse(c.Param("topicID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	n := parseIntQuery(c, "n", 5)
	recs, err := rh.recService.ConceptRecommendations(c.Request.Context(), studentID, topicID, n)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

func (rh *RecommendationHandler) Explain(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topicID, err := uuid.Parse(c.Param("topicID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	explanation, err := rh.recService.Explain(c.Request.Context(), studentID, topicID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"explanation": explanation})
}
