package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"membify/internal/cache"
	"membify/internal/config"
	infratelegram "membify/internal/infra/telegram"
	"membify/internal/notify"
	"membify/internal/outbox"
	"membify/internal/storage"
	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
	"membify/internal/stories/members"
	"membify/internal/stories/payment"
	"membify/internal/stories/plans"
	"membify/internal/stories/stats"
	"membify/internal/telegram"
	"membify/internal/telegram/cmds"
	"membify/internal/workers"
	"membify/internal/workers/expiration"
	"membify/internal/workers/outboxdispatch"
	"membify/internal/workers/paymentautocheck"
	"membify/internal/workers/reminder"
)

type Services struct {
	Communities    *communities.Service
	Members        *members.Service
	Plans          *plans.Service
	BotSettings    *botsettings.Service
	Stats          *stats.Service
	Payments       *payment.Service
	Outbox         *outbox.Service
	Notifier       *notify.Dispatcher
	TelegramRouter *telegram.Router
	WorkerManager  *workers.Manager
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}

	chatInfo := &cachedChatInfo{
		client: clients.TelegramBot,
		titles: cache.New[int64, string](cfg.Cache.ChatTTL),
	}

	s.Communities = communities.NewService(storageImpl, chatInfo, logger)
	s.Members = members.NewService(storageImpl, logger)
	s.Plans = plans.NewService(storageImpl)
	s.BotSettings = botsettings.NewService(storageImpl)
	s.Stats = stats.NewService(storageImpl)

	notifier, err := notify.NewDispatcher(clients.TelegramBot, s.BotSettings, cfg.MiniApp.BaseURL, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create notification dispatcher")
	}
	s.Notifier = notifier

	s.Outbox = outbox.NewService(storageImpl, storageImpl, storageImpl, notifier, logger)
	s.Payments = payment.NewService(storageImpl, storageImpl, s.Outbox, clients.Stripe, clients.CryptoPay, logger)

	ownerChecker := telegram.NewOwnerChecker(&cfg.Telegram)
	statsCommand := cmds.NewStatsCommand(clients.TelegramBot, s.Communities, s.Stats)
	communitiesCommand := cmds.NewCommunitiesCommand(clients.TelegramBot, s.Communities)

	s.TelegramRouter = telegram.NewRouter(
		clients.TelegramBot,
		s.Communities,
		s.Members,
		notifier,
		ownerChecker,
		statsCommand,
		communitiesCommand,
		logger,
	)

	s.WorkerManager = workers.NewManager(logger,
		expiration.NewWorker(storageImpl, s.Outbox, s.Communities, clients.TelegramBot, logger),
		reminder.NewWorker(storageImpl, s.BotSettings, s.Communities, notifier, logger),
		paymentautocheck.NewWorker(s.Payments, logger),
		outboxdispatch.NewWorker(s.Outbox, logger),
	)

	return &s, nil
}

// cachedChatInfo fronts chat metadata lookups with a TTL cache so repeated
// title fetches do not burn Telegram API quota.
type cachedChatInfo struct {
	client *infratelegram.Client
	titles *cache.Cache[int64, string]
}

func (c *cachedChatInfo) GetChatTitle(ctx context.Context, chatID int64) (string, error) {
	if title, ok := c.titles.Get(chatID); ok {
		return title, nil
	}

	title, err := c.client.GetChatTitle(ctx, chatID)
	if err != nil {
		return "", err
	}

	c.titles.Set(chatID, title)
	return title, nil
}

func (c *cachedChatInfo) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	return c.client.GetChatMemberCount(ctx, chatID)
}
