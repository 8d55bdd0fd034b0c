package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency-portal/internal/config"
	"agency-portal/internal/convex"
	"agency-portal/internal/database"
	"agency-portal/internal/handlers"
	"agency-portal/internal/invite"
	"agency-portal/internal/jobs"
	"agency-portal/internal/logger"
	"agency-portal/internal/mailer"
	"agency-portal/internal/ratelimit"
	"agency-portal/internal/server"
	"agency-portal/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Environment, cfg.LogLevel)
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Init(cfg.DBDSN)

	catalog, err := wizard.DefaultCatalog(log)
	if err != nil {
		log.Fatal("failed to load forms", zap.Error(err))
	}

	// Redis необязателен: без него сессии мастера и лимиты живут в памяти процесса
	var (
		wizards wizard.Store
		limiter ratelimit.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()

		wizards = wizard.NewRedisStore(rdb, cfg.WizardTTL)
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimitPerMinute, time.Minute)
		log.Info("using redis for wizard sessions and rate limits", zap.String("addr", cfg.RedisAddr))
	} else {
		wizards = wizard.NewMemoryStore(cfg.WizardTTL)
		limiter = ratelimit.NewMemory(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		log.Warn("REDIS_ADDR is not set, keeping wizard sessions and rate limits in memory")
	}

	var sender mailer.Sender
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.ResendAPIKey)
	} else {
		sender = mailer.LogSender{Log: log}
		log.Warn("RESEND_API_KEY is not set, emails will only be logged")
	}
	mail := mailer.New(sender, cfg.EmailFrom, cfg.EmailInbox, log)

	h := &handlers.Handler{
		Catalog:   catalog,
		Wizards:   wizards,
		Mailer:    mail,
		Invites:   invite.NewIssuer(cfg.InviteSecret, cfg.InviteTTL),
		InviteTTL: cfg.InviteTTL,
		PortalURL: cfg.PortalURL,
		Log:       log,
	}
	if cfg.ConvexURL != "" {
		h.Forwarder = convex.NewClient(cfg.ConvexURL, cfg.ConvexKey, cfg.ConvexMutation)
		log.Info("forwarding leads to convex", zap.String("mutation", cfg.ConvexMutation))
	}

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.AddStaleLeadDigest(cfg.DigestCron, mail, cfg.DigestAge); err != nil {
		log.Fatal("invalid DIGEST_CRON", zap.String("spec", cfg.DigestCron), zap.Error(err))
	}
	scheduler.Start()

	r := server.NewRouter(cfg, h, limiter, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	// дожидаемся писем, отправленных в фоне
	mail.Wait()

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("shutdown complete")
}
