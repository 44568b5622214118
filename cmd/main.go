package main

import (
	"anonrelay/backend/internal/anonid"
	"anonrelay/backend/internal/api/handler"
	"anonrelay/backend/internal/bot"
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/localization"
	"anonrelay/backend/internal/logger"
	"anonrelay/backend/internal/moderation"
	"anonrelay/backend/internal/pending"
	"anonrelay/backend/internal/relay"
	"anonrelay/backend/internal/storage"
	"anonrelay/backend/internal/telegram"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, *redis.Client, error) {
	db, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = storage.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
	}

	log.Info("Database ready", "driver", cfg.Database.Driver, "redis", rdb != nil)
	return db, rdb, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, closer, err := logger.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(logr)

	if err := run(cfg, logr); err != nil {
		logr.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting anonymous relay bot", "env", cfg.Env)

	db, rdb, err := setupDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store := storage.NewStorageService(db, rdb)
	store.Logger = log

	loc, err := localization.NewLocalizer()
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	var pend pending.Store = pending.NewMemoryStore(cfg.PendingTTL)
	if rdb != nil {
		pend = pending.NewRedisStore(rdb, cfg.PendingTTL)
	}

	api, err := telegram.Connect(ctx, cfg.BotToken, cfg.ReconnectDelay, log)
	if err != nil {
		return err
	}
	client := telegram.NewClient(api, log)

	adminLang := cfg.DefaultLanguage
	engine := relay.NewEngine(store, anonid.NewUnique(store.AnonIDInUse), client, loc, relay.Options{
		AdminID:       cfg.AdminID,
		AdminLanguage: adminLang,
		RatePerMinute: cfg.SubmitRatePerMinute,
		Burst:         cfg.SubmitBurst,
		Logger:        log,
	})
	mod := moderation.NewController(store, client, loc, pend, moderation.Options{
		AdminID:       cfg.AdminID,
		AdminLanguage: adminLang,
		Logger:        log,
	})

	app := &bot.App{
		Store:           store,
		Engine:          engine,
		Moderation:      mod,
		Transport:       client,
		Pending:         pend,
		Localizer:       loc,
		AdminID:         cfg.AdminID,
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          log,
	}
	app.NotifyStarted(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler.NewRouter(handler.NewHandler()),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		log.Info("Liveness server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Liveness server failed", "error", err)
		}
	}()

	botService := telegram.NewBotService(api, app, log)
	botService.ReconnectDelay = cfg.ReconnectDelay
	botService.PollTimeout = cfg.PollTimeout
	runErr := botService.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Liveness server shutdown", "error", err)
	}
	log.Info("Bot stopped")
	return runErr
}
