package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aijudge-go-api/internal/config"
	"github.com/noah-isme/aijudge-go-api/internal/database"
	"github.com/noah-isme/aijudge-go-api/internal/handler"
	"github.com/noah-isme/aijudge-go-api/internal/middleware"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
	"github.com/noah-isme/aijudge-go-api/internal/router"
	"github.com/noah-isme/aijudge-go-api/internal/service"
	"github.com/noah-isme/aijudge-go-api/pkg/ai"
	cloud "github.com/noah-isme/aijudge-go-api/pkg/cloudinary"
	"github.com/noah-isme/aijudge-go-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	var s3Client *s3.Client
	if cfg.NeedsS3() {
		s3Client, err = database.ConnectS3(runCtx, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			log.Fatalf("failed to configure s3 client: %v", err)
		}
	}

	var store repository.CaseStore
	switch cfg.CaseStoreDriver {
	case config.StoreDriverS3:
		store, err = repository.NewS3CaseStore(s3Client, cfg.S3Bucket)
	default:
		store, err = repository.NewFileCaseStore(filepath.Join(cfg.DataDir, "cases"))
	}
	if err != nil {
		log.Fatalf("failed to open case store: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without event bridge")
			natsConn = nil
		}
	}

	var archive storage.Storage
	var uploader *cloud.Service
	switch cfg.ArchiveDriver {
	case config.ArchiveDriverLocal:
		local, lerr := storage.NewLocalStorage(filepath.Join(cfg.DataDir, "archive"))
		if lerr != nil {
			log.Fatalf("failed to open archive storage: %v", lerr)
		}
		archive = local
	case config.ArchiveDriverS3:
		remote, serr := storage.NewS3Storage(s3Client, cfg.S3Bucket, "archive")
		if serr != nil {
			log.Fatalf("failed to open archive storage: %v", serr)
		}
		archive = remote
	case config.ArchiveDriverCloudinary:
		uploader, err = cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
	}

	var judge ai.Judge
	switch cfg.AIProvider {
	case config.AIProviderGemini:
		gemini, gerr := ai.NewGeminiJudge(runCtx, ai.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			Logger: logger,
		})
		if gerr != nil {
			log.Fatalf("failed to create gemini judge: %v", gerr)
		}
		defer gemini.Close()
		judge = gemini
	default:
		openaiJudge, oerr := ai.NewOpenAIJudge(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if oerr != nil {
			log.Fatalf("failed to create openai judge: %v", oerr)
		}
		judge = openaiJudge
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	events := service.NewCaseEventsService(redisClient, "aijudge", natsConn, logger)
	events.Start(runCtx)

	documentService := service.NewDocumentService(store, archive, uploader, events, redisClient, cfg.MaxUploadMB, logger)
	caseService := service.NewCaseService(store, redisClient, validate, documentService, cfg.StatsCacheTTL, logger)
	judgmentService := service.NewJudgmentService(store, judge, events, redisClient, validate, logger)
	seedService := service.NewSeedService(store, redisClient, cfg.SeedEnabled, cfg.SeedToken, logger)

	caseHandler := handler.NewCaseHandler(caseService, validate, logger)
	documentHandler := handler.NewDocumentHandler(documentService, validate, logger)
	judgmentHandler := handler.NewJudgmentHandler(judgmentService, validate, logger)
	caseEventsHandler := handler.NewCaseEventsHandler(events, caseService, logger)
	seedHandler := handler.NewSeedHandler(seedService, logger)

	var adminGuards []fiber.Handler
	if cfg.JWTSecret != "" {
		adminGuards = []fiber.Handler{middleware.JWTProtected(cfg.JWTSecret), middleware.RequireAdmin()}
	}

	probes := []handler.ReadinessProbe{
		{
			Name: "case_store",
			Check: func(ctx context.Context) error {
				_, err := store.List(ctx)
				return err
			},
		},
	}
	if redisClient != nil {
		probes = append(probes, handler.ReadinessProbe{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.MaxUploadMB * 4 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	router.Register(app, cfg, router.Dependencies{
		CaseHandler:       caseHandler,
		DocumentHandler:   documentHandler,
		JudgmentHandler:   judgmentHandler,
		CaseEventsHandler: caseEventsHandler,
		SeedHandler:       seedHandler,
		AdminGuards:       adminGuards,
		JudgmentLimiter:   middleware.RateLimit("judgment", 10, time.Minute),
		ReadinessProbes:   probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, func() {
		cancelRun()
		if natsConn != nil {
			if err := natsConn.Drain(); err != nil {
				logger.Warn().Err(err).Msg("nats drain failed")
			}
		}
	})
}

func waitForShutdown(app *fiber.App, cleanup func()) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	cleanup()

	log.Println("server stopped")
}
