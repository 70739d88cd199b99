package telegram

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"membify/internal/stories/communities"
	"membify/internal/stories/members"
	"membify/internal/telegram/cmds"
)

type (
	sender interface {
		SendMessage(chatID int64, text string) error
	}

	communityService interface {
		GetByChatID(ctx context.Context, chatID int64) (*communities.Community, error)
		Register(ctx context.Context, ownerTelegramID, chatID int64, title string) (*communities.Community, error)
	}

	reconciler interface {
		Reconcile(ctx context.Context, req members.ReconcileRequest) (*members.Outcome, error)
	}

	notifier interface {
		SendWelcome(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool
	}

	ownerChecker interface {
		IsOwner(telegramID int64) bool
	}
)

// Router dispatches long-polling updates: owner commands, community
// registration when the bot is added to a chat, and member transitions into
// the same reconciler the webhook path uses.
type Router struct {
	sender       sender
	communities  communityService
	reconciler   reconciler
	notifier     notifier
	ownerChecker ownerChecker
	logger       *slog.Logger

	statsCommand       *cmds.StatsCommand
	communitiesCommand *cmds.CommunitiesCommand
}

func NewRouter(
	sender sender,
	communities communityService,
	reconciler reconciler,
	notifier notifier,
	ownerChecker ownerChecker,
	statsCommand *cmds.StatsCommand,
	communitiesCommand *cmds.CommunitiesCommand,
	logger *slog.Logger,
) *Router {
	return &Router{
		sender:             sender,
		communities:        communities,
		reconciler:         reconciler,
		notifier:           notifier,
		ownerChecker:       ownerChecker,
		logger:             logger,
		statsCommand:       statsCommand,
		communitiesCommand: communitiesCommand,
	}
}

func (r *Router) Route(update *tgbotapi.Update) error {
	ctx := context.Background()

	switch {
	case update.MyChatMember != nil:
		return r.handleBotMembership(ctx, update.MyChatMember)
	case update.ChatMember != nil:
		return r.handleMemberUpdate(ctx, update.ChatMember)
	case update.Message != nil && update.Message.IsCommand():
		return r.handleCommand(ctx, update.Message)
	}

	return nil
}

// handleBotMembership registers a community when an owner adds the bot to
// their group or channel.
func (r *Router) handleBotMembership(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	status := upd.NewChatMember.Status
	if status != "administrator" && status != "member" {
		r.logger.Info("Bot removed from chat",
			"chat_id", upd.Chat.ID,
			"status", status)
		return nil
	}

	if !r.ownerChecker.IsOwner(upd.From.ID) {
		r.logger.Warn("Bot added by non-owner, ignoring",
			"chat_id", upd.Chat.ID,
			"added_by", upd.From.ID)
		return nil
	}

	community, err := r.communities.Register(ctx, upd.From.ID, upd.Chat.ID, upd.Chat.Title)
	if err != nil {
		return err
	}

	r.logger.Info("Community registered",
		"community_id", community.ID,
		"chat_id", community.ChatID,
		"title", community.Title)

	return r.sender.SendMessage(upd.From.ID,
		"Community \""+community.Title+"\" is now connected. Create a plan to start selling subscriptions.")
}

func (r *Router) handleMemberUpdate(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	if upd.NewChatMember.User == nil {
		return nil
	}

	community, err := r.communities.GetByChatID(ctx, upd.Chat.ID)
	if err != nil {
		return err
	}
	if community == nil {
		r.logger.Warn("Member update for unknown chat", "chat_id", upd.Chat.ID)
		return nil
	}

	user := upd.NewChatMember.User
	outcome, err := r.reconciler.Reconcile(ctx, members.ReconcileRequest{
		CommunityID:    community.ID,
		TelegramUserID: user.ID,
		Username:       user.UserName,
		NewStatus:      upd.NewChatMember.Status,
	})
	if err != nil {
		return err
	}

	if outcome.Event == members.EventJoined && outcome.Subscriber != nil {
		r.notifier.SendWelcome(ctx, user.ID, community, user.UserName, outcome.Subscriber.SubscriptionEnd)
	}

	return nil
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return r.sender.SendMessage(chatID,
			"Membify manages paid access to your Telegram communities. Use /communities and /stats to manage yours.")
	case "stats":
		if !r.ownerChecker.IsOwner(userID) {
			return r.sender.SendMessage(chatID, "This command is available to community owners only.")
		}
		return r.statsCommand.Execute(ctx, userID, chatID)
	case "communities":
		if !r.ownerChecker.IsOwner(userID) {
			return r.sender.SendMessage(chatID, "This command is available to community owners only.")
		}
		return r.communitiesCommand.Execute(ctx, userID, chatID)
	default:
		return r.sender.SendMessage(chatID, "Unknown command. Try /stats or /communities.")
	}
}
