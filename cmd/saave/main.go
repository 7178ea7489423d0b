package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"saave-bot/internal/bot"
	"saave-bot/internal/config"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	storageredis "saave-bot/internal/storage/redis"
	"saave-bot/pkg/api"
	"saave-bot/pkg/logger"
	"saave-bot/pkg/redis"
)

// ENTRY POINT

func main() {
	migrate := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	switch *migrate {
	case "":
		if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
			zapLogger.Fatal("Failed to run migrations", zap.Error(err))
		}
	case "up":
		if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
			zapLogger.Fatal("Failed to run migrations", zap.Error(err))
		}
		return
	case "down":
		if err := storage.RollbackMigration(ctx, pgStorage.DB(), zapLogger); err != nil {
			zapLogger.Fatal("Failed to roll back migration", zap.Error(err))
		}
		return
	case "status":
		if err := storage.Status(ctx, pgStorage.DB(), zapLogger); err != nil {
			zapLogger.Fatal("Failed to read migration status", zap.Error(err))
		}
		return
	default:
		zapLogger.Fatal("Unknown migrate command", zap.String("command", *migrate))
	}

	engine, err := quote.NewEngine(quote.DefaultCatalog(), pricingRates(cfg.Pricing))
	if err != nil {
		zapLogger.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	documents := api.NewClient(cfg.Document.APIURL, cfg.HTTPRequestTimeout, zapLogger)
	sessions := storageredis.New(redisClient)

	tgBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		Engine:    engine,
		Documents: documents,
		Dialogs:   sessions,
		Records:   sessions,
		Ledger:    pgStorage,
	}, zapLogger, cfg)
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}

// pricingRates applies the configured per-m² overrides to the built-in rates.
func pricingRates(p config.Pricing) quote.Rates {
	rates := quote.DefaultRates()
	override := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	override(&rates.Architectural, p.Architectural)
	override(&rates.Structural, p.Structural)
	override(&rates.Accompaniment, p.Accompaniment)
	override(&rates.Electrical, p.Electrical)
	override(&rates.Hydraulic, p.Hydraulic)
	override(&rates.Budgeting, p.Budgeting)
	return rates
}
