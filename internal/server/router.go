package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/examtrack-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName           string
	TracingEnabled        bool
	AttemptHandler        *handlers.AttemptHandler
	MasteryHandler        *handlers.MasteryHandler
	AnalyticsHandler      *handlers.AnalyticsHandler
	TopicHandler          *handlers.TopicHandler
	RecommendationHandler *handlers.RecommendationHandler
	PlanHandler           *handlers.PlanHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Attempts
		api.POST("/attempts", cfg.AttemptHandler.RecordAttempt)
		api.GET("/attempts/student/:studentID", cfg.AttemptHandler.ListByStudent)

		// Mastery
		api.GET("/mastery/student/:studentID", cfg.MasteryHandler.ListByStudent)
		api.GET("/mastery/student/:studentID/concept/:conceptID", cfg.MasteryHandler.GetMastery)
		api.GET("/mastery/student/:studentID/gaps", cfg.MasteryHandler.LearningGaps)
		api.GET("/mastery/student/:studentID/concept/:conceptID/mistakes", cfg.MasteryHandler.MistakePatterns)
		api.POST("/mastery/student/:studentID/recalculate", cfg.MasteryHandler.Recalculate)

		// Analytics
		api.GET("/analytics/student/:studentID", cfg.AnalyticsHandler.StudentPerformance)

		// Topics
		api.POST("/topics", cfg.TopicHandler.CreateTopic)
		api.GET("/topics", cfg.TopicHandler.Hierarchy)
		api.POST("/topics/:topicID/prerequisites", cfg.TopicHandler.AddPrerequisite)
		api.GET("/topics/:topicID/prerequisites", cfg.TopicHandler.Prerequisites)
		api.GET("/topics/:topicID/dependents", cfg.TopicHandler.Dependents)

		// Recommendations
		api.GET("/recommendations/next/:studentID", cfg.RecommendationHandler.Next)
		api.GET("/recommendations/top/:studentID", cfg.RecommendationHandler.Top)
		api.GET("/recommendations/concepts/:studentID/:topicID", cfg.RecommendationHandler.Concepts)
		api.GET("/recommendations/explain/:studentID/:topicID", cfg.RecommendationHandler.Explain)
		api.GET("/recommendations/unlockable/:studentID", cfg.TopicHandler.Unlockable)

		// Plans
		api.POST("/plans/:studentID", cfg.PlanHandler.BuildPlan)
	}

	return router
}
