package environment

import (
	"context"
	"log/slog"
	"net/http"

	"membify/internal/config"
	"membify/internal/webhook"
)

type Servers struct {
	HTTP struct {
		Observability *http.Server
	}
	Webhook *webhook.Server
}

func newServers(ctx context.Context, cfg config.Config, logger *slog.Logger, clients *Clients, services *Services) *Servers {
	var servers Servers

	servers.Webhook = webhook.NewServer(
		cfg.Webhook,
		services.Communities,
		services.Members,
		services.Members,
		services.Payments,
		services.Payments,
		services.Plans,
		services.BotSettings,
		clients.Stripe,
		services.Stats,
		services.Notifier,
		logger.WithGroup("webhook"),
	)

	servers.HTTP.Observability = initObservability(ctx, logger.WithGroup("http"), clients, cfg)

	return &servers
}
