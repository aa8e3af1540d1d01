package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"resumelens/resume-analyzer/internal/config"
	"resumelens/resume-analyzer/internal/handlers"
	"resumelens/resume-analyzer/internal/logger"
	"resumelens/resume-analyzer/internal/repositories"
	"resumelens/resume-analyzer/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	log.Info("database connected")

	repo := repositories.NewAnalysisRepository(db)

	ctx := context.Background()

	backend, err := services.NewGeminiBackend(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal("failed to initialize text-generation backend", zap.Error(err))
	}
	log.Info("text-generation backend initialized", zap.String("model", backend.ModelName()))

	scoringProvider := config.NewScoringProvider(cfg.Scoring)
	resumeStore := services.NewResumeStore(cfg.ResumeStore)
	normalizer := services.NewNormalizer(log)

	structureAgent := services.NewStructureAgent(backend, cfg.Agent, log)
	appealAgent := services.NewAppealAgent(backend, cfg.Agent, log)

	orchestrator := services.NewOrchestratorService(
		repo,
		resumeStore,
		structureAgent,
		appealAgent,
		normalizer,
		scoringProvider,
		backend,
		log,
	)

	worker := services.NewWorker(repo, orchestrator, cfg.Worker, log)
	worker.Start(ctx)
	log.Info("worker started")

	analysisHandler := handlers.NewAnalysisHandler(repo, worker, log)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC(),
		})
	})

	api.Post("/analyses", analysisHandler.HandleSubmit)
	api.Get("/analyses/:id", analysisHandler.HandlePoll)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
