package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codewhisperer/config"
	"codewhisperer/database"
	"codewhisperer/logger"
	"codewhisperer/middleware"
	"codewhisperer/operations"
	v1 "codewhisperer/routes/v1"
	"codewhisperer/services"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// @title Code Whisperer API
// @version 1.0
// @description Backend of the Code Whisperer function-chaining contest.
// @BasePath /api/v1
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.GinMode == gin.ReleaseMode)
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.PostgresDSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	accounts, err := services.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load accounts")
	}
	if err := database.Populate(db, accounts); err != nil {
		logrus.WithError(err).Fatal("Failed to create teams")
	}

	cache, err := database.InitRedis(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, leaderboard cache disabled")
		cache = database.NewCache(nil, cfg.CacheTTL)
	}
	defer cache.Close()

	images, err := services.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		logrus.WithError(err).Warn("Object storage unavailable, image uploads disabled")
		images = nil
	}

	notifier := services.NewNotifier(cfg.SocketURL, cfg.NotifyTimeout)
	registry := operations.NewRegistry()
	executor := worksheet.NewExecutor(registry)

	router := gin.New()
	router.Use(gin.Recovery())
	v1.Register(router, v1.Dependencies{
		Config:      cfg,
		Auth:        services.NewAuthService(db, accounts, cfg.AuthSecret, cfg.SessionTTL),
		Questions:   services.NewQuestionService(db, cache, images, notifier, cfg.NotifyTimeout),
		Submissions: services.NewSubmissionService(db, cache, executor, notifier, cfg.NotifyTimeout),
		Leaderboard: services.NewLeaderboardService(db, cache),
		Registry:    registry,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithField("port", cfg.APIPort).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return middleware.UpdateSystemMetrics(gctx, 15*time.Second)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logrus.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("API server stopped with error")
		os.Exit(1)
	}
}
