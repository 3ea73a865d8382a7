package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stylefit/catalog"
	"stylefit/config"
	"stylefit/pipeline"
	"stylefit/routes"
	"stylefit/services"
	"stylefit/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	gin.SetMode(gin.ReleaseMode)
	return zap.NewProduction()
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	svcCfg := services.SessionServiceConfig{
		Store:         services.NewSessionStore(db),
		Catalog:       catalog.Default(),
		Pipeline:      pipeline.Config{Interval: cfg.StageInterval, Settle: cfg.SettleDelay, Stages: pipeline.DefaultStages},
		MaxPhotoBytes: cfg.MaxPhotoBytes,
		Premium:       services.PremiumConfig{PG: cfg.PaymentPG},
		Logger:        logger,
	}
	hub := services.NewRealtimeHub(logger)
	svcCfg.Events = hub

	if cfg.S3Bucket != "" {
		up, err := utils.NewS3Uploader(ctx, cfg.S3Region, cfg.S3Bucket, cfg.CloudFrontURL)
		if err != nil {
			return err
		}
		svcCfg.Photos = services.NewS3PhotoStore(up)
	} else {
		logger.Info("S3_BUCKET not set, photos are kept inline")
	}
	if cfg.SESEmail != "" {
		m, err := utils.NewMailer(ctx, cfg.AWSRegion, cfg.SESEmail)
		if err != nil {
			return err
		}
		svcCfg.Mailer = m
	}
	if cfg.OrderTopicARN != "" {
		n, err := services.NewSNSOrderNotifier(ctx, cfg.AWSRegion, cfg.OrderTopicARN)
		if err != nil {
			return err
		}
		svcCfg.Orders = n
	}
	if cfg.PaymentGatewayURL != "" {
		svcCfg.Payments = services.NewHTTPPaymentGateway(cfg.PaymentGatewayURL, logger)
	} else {
		logger.Warn("PAYMENT_GATEWAY_URL not set, premium checkout is unavailable")
	}

	var limiter services.RateLimiter = services.NewMemoryRateLimiter(cfg.RateLimitPerMin, time.Minute)
	if cfg.RedisAddr != "" {
		rl, err := services.NewRedisRateLimiter(cfg.RedisAddr, cfg.RateLimitPerMin, time.Minute)
		if err != nil {
			return err
		}
		defer rl.Close()
		limiter = rl
	}

	sessions := services.NewSessionService(svcCfg)
	router := routes.SetupRouter(routes.Deps{
		Sessions: sessions,
		Hub:      hub,
		Limiter:  limiter,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.SessionTTL,
		Logger:   logger,

		MaxPhotoBytes: cfg.MaxPhotoBytes,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		purgeLoop(gctx, sessions, cfg.SessionTTL, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		if err := sessions.Shutdown(shutdownCtx); err != nil {
			logger.Warn("pipelines did not stop in time", zap.Error(err))
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func purgeLoop(ctx context.Context, sessions *services.SessionService, ttl time.Duration, logger *zap.Logger) {
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := sessions.PurgeExpired(ctx, ttl); err != nil {
				logger.Warn("purge expired sessions", zap.Error(err))
			}
		}
	}
}
