package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/examtrack-backend/internal/services"
)

type TopicHandler struct {
	kgService services.KnowledgeGraphService
}

func NewTopicHandler(kgService services.KnowledgeGraphService) *TopicHandler {
	return &TopicHandler{kgService: kgService}
}

func (th *TopicHandler) CreateTopic(c *gin.Context) {
	var input services.CreateTopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	topic, err := th.kgService.CreateTopic(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"topic": topic})
}

type addPrerequisiteBody struct {
	PrerequisiteTopicID uuid.UUID `json:"prerequisite_topic_id"`
	MinimumMastery      float64   `json:"minimum_mastery"`
}

func (th *TopicHandler) AddPrerequisite(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("topicID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body addPrerequisiteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	edge, err := th.kgService.AddPrerequisite(c.Request.Context(), topicID, body.PrerequisiteTopicID, body.MinimumMastery)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"prerequisite": edge})
}

func (th *TopicHandler) Prerequisites(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("topicID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topics, err := th.kgService.Prerequisites(c.Request.Context(), topicID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"prerequisites": topics})
}

func (th *TopicHandler) Dependents(c *gin.Context) {
	topicID, err := uuid.Parse(c.Param("topicID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	topics, err := th.kgService.Dependents(c.Request.Context(), topicID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"dependents": topics})
}

func (th *TopicHandler) Hierarchy(c *gin.Context) {
	nodes, err := th.kgService.TopicHierarchy(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"topics": nodes})
}

func (th *TopicHandler) Unlockable(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	threshold := parseFloatQuery(c, "threshold", 0)
	topics, err := th.kgService.UnlockableTopics(c.Request.Context(), studentID, threshold)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"unlockable": topics})
}
