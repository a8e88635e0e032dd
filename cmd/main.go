package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/cuereview/config"
	"github.com/Dosada05/cuereview/db"
	"github.com/Dosada05/cuereview/handlers"
	"github.com/Dosada05/cuereview/live"
	"github.com/Dosada05/cuereview/repositories"
	api "github.com/Dosada05/cuereview/routes"
	"github.com/Dosada05/cuereview/services"
	"github.com/Dosada05/cuereview/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.ArchiveEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize CSV archive uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("CSV archive uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("CSV archiving disabled, no R2 credentials configured")
	}

	feedHub := live.NewHub(logger)
	go feedHub.Run()

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	ballRepo := repositories.NewPostgresBallRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	frameRepo := repositories.NewPostgresFrameRepository(dbConn)
	breakRepo := repositories.NewPostgresBreakRepository(dbConn)
	ratingStore := repositories.NewPostgresRatingStore(dbConn)

	uow := services.NewSQLUnitOfWork(dbConn, logger)
	ratingService := services.NewRatingService(ratingStore, logger)
	ingestService := services.NewIngestService(
		uow, playerRepo, ballRepo, matchRepo, frameRepo, breakRepo, ratingService, logger)
	matchService := services.NewMatchService(matchRepo, frameRepo, breakRepo, logger)
	playerService := services.NewPlayerService(playerRepo, ballRepo, logger)
	statsService := services.NewStatsService(ballRepo, frameRepo, logger)

	uploadHandler := handlers.NewUploadHandler(ingestService, matchService, uploader, feedHub, logger)
	matchHandler := handlers.NewMatchHandler(matchService)
	playerHandler := handlers.NewPlayerHandler(playerService, matchService, ratingService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webSocketHandler := handlers.NewWebSocketHandler(feedHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, uploadHandler, matchHandler, playerHandler, statsHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
