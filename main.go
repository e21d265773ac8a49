package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alerta_social/config"
	"alerta_social/handler"
	"alerta_social/middleware"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	time.Local = time.UTC
}

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer utils.SyncLogger()
	logger := utils.Logger()

	if err := utils.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer utils.CloseDB()

	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer utils.CloseRedis()

	verifier, err := middleware.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("invalid auth configuration", zap.Error(err))
	}

	db := utils.GetDB()
	notifSvc := service.NewNotificationService(db, cfg.NotificationListLimit)
	templateSvc := service.NewNotificationTemplateService(db)
	presence := service.NewPresenceService(utils.GetRedis(), time.Duration(cfg.PresenceTTLSeconds)*time.Second)
	userSvc := service.NewUserService(db)
	postSvc := service.NewPostService(db)
	friendSvc := service.NewFriendshipService(db)

	if err := templateSvc.InitDefaultTemplates(context.Background()); err != nil {
		logger.Warn("failed to init default notification templates", zap.Error(err))
	}

	registry := handler.NewRegistry(handler.ParseSessionPolicy(cfg.SessionPolicy), cfg.MaxConnectionsPerUser)
	hub := handler.NewHub(registry, verifier, notifSvc, presence)
	emitters := service.NewNotificationEmitter(notifSvc, templateSvc, hub)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.Handlers{
		Hub:           hub,
		Verifier:      verifier,
		Posts:         handler.NewPostHandler(postSvc, userSvc, emitters),
		Friendships:   handler.NewFriendshipHandler(friendSvc, userSvc, emitters),
		Notifications: handler.NewNotificationHandler(notifSvc, hub, cfg.NotificationListLimit),
		Sessions:      handler.NewSessionHandler(hub, friendSvc, presence),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("alerta_social service starting",
			zap.String("port", cfg.Port),
			zap.String("session_policy", string(registry.Policy())),
			zap.Bool("presence_mirror", presence.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
