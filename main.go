package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"

	"coursehub/cache"
	"coursehub/config"
	controllers "coursehub/controllers/course"
	"coursehub/database"
	"coursehub/logger"
	courseModels "coursehub/models/course"
	"coursehub/repository"
	courseRoutes "coursehub/routers/courseRoutes"
	"coursehub/services"
	"coursehub/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := database.ConnectDb(cfg, log); err != nil {
		log.Fatal("database setup failed", "error", err)
	}
	store := repository.NewGormStore(database.Database.Db, log)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unavailable, quiz cache disabled", "addr", cfg.RedisAddr, "error", err)
			_ = rdb.Close()
			rdb = nil
		}
	}
	quizzes := cache.NewQuizCache(rdb, time.Duration(cfg.QuizCacheTTLMinutes)*time.Minute,
		func(ctx context.Context, quizID string) (*courseModels.Quiz, []courseModels.Question, error) {
			return store.LoadQuizWithQuestions(ctx, nil, quizID)
		}, log)

	var notifiers []services.Notifier
	if cfg.CompletionWebhookURL != "" {
		notifiers = append(notifiers, utils.NewWebhookNotifier(cfg.CompletionWebhookURL, 10*time.Second))
	}
	if cfg.SendgridAPIKey != "" && cfg.CompletionMailTo != "" {
		mailer, err := utils.NewMailNotifier(utils.MailConfig{
			APIKey:    cfg.SendgridAPIKey,
			FromEmail: cfg.SendgridFromEmail,
			FromName:  cfg.SendgridFromName,
			To:        cfg.CompletionMailTo,
		})
		if err != nil {
			log.Fatal("mail notifier setup failed", "error", err)
		}
		notifiers = append(notifiers, mailer)
	}

	learning := services.NewLearningService(store, quizzes, log, services.WithNotifiers(notifiers...))
	controllers.Init(learning, log)

	audit, err := utils.InitializeProgressAuditScheduler(learning, cfg.ProgressAuditCron, log)
	if err != nil {
		log.Fatal("progress audit scheduler failed", "error", err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		<-audit.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
