package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/examtrack-backend/internal/clients/openai"
	"github.com/yungbote/examtrack-backend/internal/clients/redis"
	"github.com/yungbote/examtrack-backend/internal/curriculum"
	"github.com/yungbote/examtrack-backend/internal/db"
	"github.com/yungbote/examtrack-backend/internal/handlers"
	"github.com/yungbote/examtrack-backend/internal/observability"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/platform/neo4jdb"
	"github.com/yungbote/examtrack-backend/internal/repos"
	"github.com/yungbote/examtrack-backend/internal/server"
	"github.com/yungbote/examtrack-backend/internal/services"
	"github.com/yungbote/examtrack-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "examtrack-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	topicRepo := repos.NewTopicRepo(thePG, log)
	prereqRepo := repos.NewTopicPrerequisiteRepo(thePG, log)
	conceptRepo := repos.NewConceptRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	attemptRepo := repos.NewAttemptRepo(thePG, log)
	masteryRepo := repos.NewMasteryRepo(thePG, log)
	studentRepo := repos.NewStudentProfileRepo(thePG, log)
	planRepo := repos.NewStudyPlanRepo(thePG, log)

	// Neo4j graph mirror (optional)
	neoClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, graph mirror disabled", "error", err)
		neoClient = nil
	}
	if neoClient != nil {
		defer neoClient.Close(context.Background())
	}

	// Explanation cache: Redis when configured, in-process otherwise.
	cache, err := redis.NewCacheFromEnv(log)
	if err != nil {
		log.Warn("Redis init failed, using in-memory cache", "error", err)
		cache = redis.NewMemoryCache()
	}

	// Text generation (optional)
	var aiClient openai.Client
	if os.Getenv("OPENAI_API_KEY") != "" {
		aiClient, err = openai.NewClient(log)
		if err != nil {
			log.Warn("Could not init OpenAIClient, explanations stay template-only", "error", err)
			aiClient = nil
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	kgService := services.NewKnowledgeGraphService(thePG, log, topicRepo, prereqRepo, conceptRepo, masteryRepo, neoClient)
	masteryService := services.NewMasteryService(thePG, log, attemptRepo, questionRepo, masteryRepo, studentRepo)
	recService := services.NewRecommendationService(thePG, log, topicRepo, conceptRepo, masteryRepo, studentRepo, planRepo, kgService, aiClient, cache)

	// Curriculum import
	loader := curriculum.NewLoader(log, kgService, topicRepo, conceptRepo)
	if err := loader.LoadFromEnv(context.Background()); err != nil {
		log.Error("Curriculum import failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	attemptHandler := handlers.NewAttemptHandler(masteryService)
	masteryHandler := handlers.NewMasteryHandler(masteryService)
	analyticsHandler := handlers.NewAnalyticsHandler(masteryService)
	topicHandler := handlers.NewTopicHandler(kgService)
	recHandler := handlers.NewRecommendationHandler(recService)
	planHandler := handlers.NewPlanHandler(recService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:           "examtrack-backend",
		TracingEnabled:        observability.Enabled(),
		AttemptHandler:        attemptHandler,
		MasteryHandler:        masteryHandler,
		AnalyticsHandler:      analyticsHandler,
		TopicHandler:          topicHandler,
		RecommendationHandler: recHandler,
		PlanHandler:           planHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
