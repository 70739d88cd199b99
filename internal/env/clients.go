package environment

import (
	"context"
	"log/slog"
	"time"

	"membify/internal/config"
	"membify/internal/infra/cryptopay"
	"membify/internal/infra/sqlite3"
	"membify/internal/infra/stripe"
	"membify/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	Stripe      *stripe.Client
	CryptoPay   *cryptopay.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	telegramBot, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.RateLimit, logger)
	if err != nil {
		return nil, err
	}

	stripeClient := stripe.NewClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret, logger)

	cryptoClient := cryptopay.NewClient(
		cfg.Crypto.APIURL,
		cfg.Crypto.APIKey,
		logger,
		cryptopay.WithTimeout(cfg.Crypto.Timeout),
		cryptopay.WithRateLimit(cfg.Crypto.RateLimitRPS, cfg.Crypto.RateLimitBurst),
	)

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
		Stripe:      stripeClient,
		CryptoPay:   cryptoClient,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}
