package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"careerdev-subscription/internal/config"
	"careerdev-subscription/internal/domain/ports/adapter"
	aiAdapter "careerdev-subscription/internal/infra/ai"
	pg "careerdev-subscription/internal/infra/db/postgres"
	"careerdev-subscription/internal/infra/gateway"
	"careerdev-subscription/internal/infra/logging"
	"careerdev-subscription/internal/infra/metrics"
	red "careerdev-subscription/internal/infra/redis"
	"careerdev-subscription/internal/infra/sched"
	"careerdev-subscription/internal/infra/web"
	"careerdev-subscription/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Payment gateways ----
	var signers []adapter.GatewaySigner
	if cfg.Payment.PayU.Enabled {
		payu, err := gateway.NewPayUSigner(cfg.Payment.PayU.Key, cfg.Payment.PayU.Salt, cfg.Payment.PayU.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("payu signer")
		}
		signers = append(signers, payu)
	}
	if cfg.Payment.PhonePe.Enabled {
		phonepe, err := gateway.NewPhonePeSigner(cfg.Payment.PhonePe.MerchantID, cfg.Payment.PhonePe.SaltKey, cfg.Payment.PhonePe.SaltIndex, cfg.Payment.PhonePe.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("phonepe signer")
		}
		signers = append(signers, phonepe)
	}
	registry := gateway.NewRegistry(signers...)
	logger.Info().Strs("gateways", registry.Names()).Msg("payment gateways configured")

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, logger)
	gateUC := usecase.NewGateUseCase(subUC, locker, logger)
	payUC := usecase.NewPaymentUseCase(payRepo, planRepo, subUC, registry, tm, cfg.Server.PublicURL, logger)

	if n, err := planUC.Seed(ctx); err != nil {
		logger.Fatal().Err(err).Msg("plan seed failed")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("plan catalog seeded")
	}

	// ---- AI adapter ----
	var gen adapter.ContentGenerator
	if cfg.AI.OpenAIKey != "" {
		gen, err = aiAdapter.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
	} else {
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key")
	}

	// ---- Subscriptions gauge ----
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if counts, err := subUC.CountByTier(ctx); err == nil {
					metrics.SetSubscriptionsTotal(counts)
				}
			}
		}
	}()

	// ---- Payment reconciler ----
	reconciler := sched.NewPaymentReconciler(payUC, cfg.Payment.ReconcileEvery, cfg.Payment.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	srv := web.NewServer(cfg, gateUC, subUC, planUC, payUC, gen, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
