package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"category-dashboard/internal/api"
	"category-dashboard/internal/config"
	"category-dashboard/internal/logging"
	"category-dashboard/internal/repository"
	"category-dashboard/internal/service"
)

const (
	orphanImageAge   = time.Hour
	limiterIdleAfter = 10 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		MaxFiles:  cfg.LogMaxFiles,
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logCloser.Close()

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	if err := repository.Initialize(ctx, db); err != nil {
		logger.Fatalf("Database initialization failed: %v", err)
	}
	logger.Info("Database is successfully initialized")

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	authSvc := service.NewAuthService(userRepo, logger, service.AuthOptions{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
	})
	categorySvc := service.NewCategoryService(categoryRepo, logger)
	imageSvc, err := service.NewImageService(cfg.UploadDir, api.UploadsPrefix, cfg.MaxUploadBytes(), logger)
	if err != nil {
		logger.Fatalf("uploads: %v", err)
	}
	limiter := api.NewRateLimiter(cfg.AuthRatePerSec, cfg.AuthRateBurst)

	scheduler := service.NewSchedulerService(time.Local, logger)
	if cfg.SweepEvery > 0 {
		if _, err := scheduler.ScheduleInterval("sweep-uploads", cfg.SweepEvery, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := imageSvc.SweepOrphans(jobCtx, categoryRepo, orphanImageAge); err != nil {
				logger.WithError(err).Warn("sweep uploads")
			}
		}); err != nil {
			logger.Fatalf("schedule sweep: %v", err)
		}
	}
	if _, err := scheduler.ScheduleInterval("prune-rate-limiter", limiterIdleAfter, func() {
		if removed := limiter.Prune(limiterIdleAfter); removed > 0 {
			logger.WithFields(logrus.Fields{"removed": removed, "tracked": limiter.Len()}).Debug("rate limiter pruned")
		}
	}); err != nil {
		logger.Fatalf("schedule limiter pruning: %v", err)
	}
	scheduler.Start()
	logger.WithField("jobs", scheduler.Entries()).Info("scheduler started")
	defer scheduler.Stop()

	srv := api.NewServer(api.Options{
		Auth:       authSvc,
		Categories: categorySvc,
		Images:     imageSvc,
		Limiter:    limiter,
		Logger:     logger,
		DevErrors:  cfg.Development(),
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Errorf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
	logger.Info("Shutdown complete.")
}
