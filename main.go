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

	"book-a-meal-api/auth"
	"book-a-meal-api/config"
	"book-a-meal-api/handlers"
	"book-a-meal-api/logger"
	"book-a-meal-api/mailer"
	"book-a-meal-api/models"
	"book-a-meal-api/repository"
	"book-a-meal-api/routes"
	"book-a-meal-api/services"
	"book-a-meal-api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := config.OpenDB(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := repository.New(db)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	if created, err := config.SeedCaterer(context.Background(), store, hasher, cfg.Caterer); err != nil {
		zlog.Fatal("Failed to seed caterer", zap.Error(err))
	} else if created {
		zlog.Info("Seeded caterer account", zap.String("email", cfg.Caterer.Email))
	}

	var sender mailer.Sender = mailer.LogSender{Logger: zlog}
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	validator := validation.New(store, func() models.Date { return models.DateOf(time.Now()) })
	authSvc := auth.NewService(
		store,
		validator,
		hasher,
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry),
		sender,
		auth.Links{EmailVerification: cfg.Links.EmailVerification, PasswordReset: cfg.Links.PasswordReset},
		zlog,
	)
	h := handlers.New(authSvc, services.New(store, validator), store, zlog)
	router := routes.NewRouter(h, authSvc, routes.Options{CORSOrigins: cfg.CORSOrigins, Logger: zlog})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited")
}
