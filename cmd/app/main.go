package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paintball2go-backend/internal/config"
	emailAdapters "paintball2go-backend/internal/infra/adapters/email"
	payAdapters "paintball2go-backend/internal/infra/adapters/payment"
	pg "paintball2go-backend/internal/infra/db/postgres"
	"paintball2go-backend/internal/infra/logging"
	"paintball2go-backend/internal/infra/metrics"
	red "paintball2go-backend/internal/infra/redis"
	"paintball2go-backend/internal/infra/sched"
	"paintball2go-backend/internal/infra/security"
	"paintball2go-backend/internal/infra/web"
	"paintball2go-backend/internal/infra/worker"
	"paintball2go-backend/internal/usecase"

	"paintball2go-backend/internal/domain/ports/adapter"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	bookingRepo := pg.NewBookingRepo(pool)
	waiverRepo := pg.NewWaiverRepo(pool, encSvc)
	invoiceRepo := pg.NewInvoiceRepo(pool)
	seqRepo := pg.NewInvoiceSequenceRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	campaignRepo := pg.NewCampaignRepo(pool)
	templateRepo := pg.NewTemplateRepo(pool)

	// ---- Adapters ----
	var mailer adapter.EmailSender
	if cfg.Runtime.Dev || cfg.Email.ResendAPIKey == "" {
		mailer = emailAdapters.NewNoopSender(logger)
	} else {
		mailer = emailAdapters.NewResendSender(&cfg.Email, logger)
	}
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev || cfg.Stripe.SecretKey == "" {
		gateway = payAdapters.NewNoopGateway()
	} else {
		gateway = payAdapters.NewStripeGateway(&cfg.Stripe, logger)
	}

	// ---- Campaign worker pool ----
	pool2 := worker.NewPool(cfg.Email.Workers)
	pool2.Start(ctx)
	defer pool2.Stop()

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase()
	invoiceUC := usecase.NewInvoiceUseCase(invoiceRepo, seqRepo, txManager, gateway, mailer, logger)
	bookingUC := usecase.NewBookingUseCase(bookingRepo, waiverRepo, userRepo, pricingUC, invoiceUC, mailer, logger)
	waiverUC := usecase.NewWaiverUseCase(waiverRepo, txManager, mailer, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, userRepo, txManager, invoiceUC, logger)
	campaignUC := usecase.NewCampaignUseCase(campaignRepo, templateRepo, userRepo, mailer, pool2, logger)

	// ---- Schedulers ----
	go func() { _ = sched.NewOverdueWorker(cfg.Scheduler.OverdueInterval, invoiceUC, logger).Run(ctx) }()
	go func() {
		_ = sched.NewWaiverExpiryWorker(cfg.Scheduler.WaiverExpiryInterval, waiverUC, logger).Run(ctx)
	}()

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, !cfg.Runtime.Dev, "", 24*time.Hour)
	srv := web.NewServer(pricingUC, bookingUC, waiverUC, invoiceUC, subUC, campaignUC, auth, rateLimiter, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Metrics ----
	var metricsServer *http.Server
	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.MetricsPort), Handler: mux}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("metrics listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}
