package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	Webhook          WebhookHTTPConfig       `env:",prefix=WEBHOOK_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Stripe           StripeConfig            `env:",prefix=STRIPE_"`
	Crypto           CryptoPayConfig         `env:",prefix=CRYPTO_"`
	MiniApp          MiniAppConfig           `env:",prefix=MINIAPP_"`
	Cache            CacheConfig             `env:",prefix=CACHE_"`
}

type TelegramConfig struct {
	BotToken string        `env:"BOT_TOKEN,required"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
	OwnerIDs []int64       `env:"OWNER_IDS"`
	// Telegram allows ~30 outbound messages per second per bot.
	RateLimit float64 `env:"RATE_LIMIT,default=25.0"`
}

type StripeConfig struct {
	APIKey        string `env:"API_KEY,required"`
	WebhookSecret string `env:"WEBHOOK_SECRET,required"`
}

type CryptoPayConfig struct {
	APIURL         string        `env:"API_URL,default=https://api.nowpayments.io/v1"`
	APIKey         string        `env:"API_KEY"`
	Timeout        time.Duration `env:"TIMEOUT,default=30s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS,default=5.0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST,default=1"`
}

// MiniAppConfig points at the subscription mini-app the inline
// "Join Community" button links to.
type MiniAppConfig struct {
	BaseURL string `env:"BASE_URL,default=https://t.me/MembifyBot/app"`
}

type CacheConfig struct {
	ChatTTL time.Duration `env:"CHAT_TTL,default=10m"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// WebhookHTTPConfig is the public-facing server that receives Telegram
// updates and payment-provider callbacks.
type WebhookHTTPConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         uint16        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a WebhookHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/membify.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
