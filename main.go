package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sqlquest/config"
	"sqlquest/handlers"
	"sqlquest/logger"
	"sqlquest/middleware"
	"sqlquest/models"
	"sqlquest/services"
	"sqlquest/utils"
	"sqlquest/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger needs LOG_MODE from config, so fall back to a dev logger here
		logger.NewWithFallback("development").Fatal("invalid configuration", "error", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, ranking served from database", "addr", cfg.RedisAddr, "error", err)
			_ = rdb.Close()
			rdb = nil
		}
	}

	policy := services.UnlockPolicy{
		FirstLessonID:          cfg.FirstLessonID,
		RequireParentCompleted: cfg.UnlockRequireLessonCompleted,
	}
	achievementService := services.NewAchievementService(db, log)
	progressionService := services.NewProgressionService(db, log, policy, services.NewKeywordValidator(), achievementService, cfg.HintAfterAttempts)
	storeService := services.NewStoreService(db, log, cfg.DefaultAvatarIcon)
	profileService := services.NewProfileService(db, log, cfg.DefaultAvatarIcon)
	rankingService := services.NewRankingService(db, rdb, log, cfg.RankingLimit, 2*cfg.RankingRefreshInterval, cfg.DefaultAvatarIcon)
	rewardService := services.NewRewardService(db, log)
	catalogService := services.NewCatalogService(db, log)

	if cfg.CatalogPath != "" {
		if _, err := catalogService.ImportFile(ctx, cfg.CatalogPath); err != nil {
			log.Fatal("failed to import catalog", "path", cfg.CatalogPath, "error", err)
		}
	}

	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		worker := workers.NewCatalogSyncWorker(r2, catalogService, cfg.R2.CatalogKey, cfg.CatalogSyncInterval, log)
		go worker.Run(ctx)
	}

	sched, err := services.StartScheduler(log, rankingService, achievementService, cfg.RankingRefreshInterval, cfg.ReconcileInterval)
	if err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	// Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, log))
	app.Use(middleware.UserContextMiddleware(log))

	handlers.SetupProgressionRoutes(app, progressionService, log)
	handlers.SetupAchievementRoutes(app, achievementService, log)
	handlers.SetupStoreRoutes(app, storeService, log)
	handlers.SetupProfileRoutes(app, profileService, storeService, rankingService, rewardService, log)
	handlers.SetupAdminRoutes(app, catalogService, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	log.Info("server running", "port", cfg.Port, "origins", cfg.AllowedOrigins, "redis", rdb != nil, "r2_sync", cfg.R2.Enabled())

	<-ctx.Done()
	log.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("server shutdown", "error", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
