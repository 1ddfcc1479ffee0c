package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/routes"
	"github.com/amaforum/ama/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		utils.Logger.Fatal("failed to open store", zap.Error(err))
	}
	defer func() {
		if err := st.Close(); err != nil {
			utils.Logger.Warn("store close failed", zap.Error(err))
		}
	}()

	rc, err := utils.NewRedis(cfg)
	if err != nil {
		// keep going: cache and blacklist degrade per call
		utils.Logger.Warn("redis unavailable", zap.Error(err))
	}

	deps := routes.Dependencies{
		Cache:     utils.NewCache(rc, cfg.CacheTTL),
		Blacklist: utils.NewTokenBlacklist(rc),
	}
	if sp := utils.NewStripeProcessor(cfg.PaymentSecretKey); sp != nil {
		deps.Payments = sp
	} else {
		utils.Logger.Warn("PAYMENT_SECRET_KEY not set, payment intents disabled")
	}

	pruner, err := utils.StartSearchTagPruner(cfg, st)
	if err != nil {
		utils.Logger.Fatal("invalid search tag prune schedule", zap.String("schedule", cfg.PruneSchedule), zap.Error(err))
	}
	if pruner != nil {
		defer func() {
			<-pruner.Stop().Done()
		}()
	}

	r := routes.SetupRouter(cfg, st, deps)

	utils.Logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("database", redactedScheme(cfg.DatabaseURL())))
	start := time.Now()
	if err := utils.GraceServer(ctx, ":"+cfg.AppPort, r); err != nil {
		utils.Logger.Error("server stopped with error", zap.Error(err))
		return
	}
	utils.Logger.Info("server stopped", zap.Duration("uptime", time.Since(start)))
}

func redactedScheme(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return uri[:i]
	}
	return "unknown"
}
