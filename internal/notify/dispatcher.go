package notify

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
)

type (
	// Sender is the outbound Telegram surface the dispatcher needs.
	Sender interface {
		SendMessage(chatID int64, text string) error
		SendKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
		SendPhoto(chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	}

	SettingsProvider interface {
		GetOrDefault(ctx context.Context, communityID int64) (*botsettings.Settings, error)
	}
)

// Dispatcher renders and sends subscriber notifications. Sends are soft
// failures: a Telegram error is logged and counted, and the caller gets
// false instead of an error, since workers pick the subscriber up again on
// the next run anyway.
type Dispatcher struct {
	sender     Sender
	settings   SettingsProvider
	defaults   defaultTemplates
	miniAppURL string
	logger     *slog.Logger
}

// NewDispatcher loads the embedded default templates. miniAppURL is the
// renewal surface linked from reminder and expiry messages; empty disables
// the button.
func NewDispatcher(sender Sender, settings SettingsProvider, miniAppURL string, logger *slog.Logger) (*Dispatcher, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		sender:     sender,
		settings:   settings,
		defaults:   defaults,
		miniAppURL: miniAppURL,
		logger:     logger,
	}, nil
}

// SendWelcome greets a subscriber whose payment just completed. When the
// community has a photo it goes out as photo+caption, and an invite link
// becomes an inline join button.
func (d *Dispatcher) SendWelcome(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool {
	text := d.render(ctx, KindWelcome, community, username, expires)

	var keyboard *tgbotapi.InlineKeyboardMarkup
	if community.InviteLink != nil && *community.InviteLink != "" {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Join Community", *community.InviteLink),
			),
		)
		keyboard = &kb
	}

	var err error
	switch {
	case community.PhotoURL != nil && *community.PhotoURL != "":
		err = d.sender.SendPhoto(userID, *community.PhotoURL, text, keyboard)
	case keyboard != nil:
		err = d.sender.SendKeyboard(userID, text, *keyboard)
	default:
		err = d.sender.SendMessage(userID, text)
	}

	return d.report(KindWelcome, userID, err)
}

func (d *Dispatcher) SendReminder(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool {
	text := d.render(ctx, KindReminder, community, username, expires)
	err := d.sendWithRenewButton(userID, text)
	return d.report(KindReminder, userID, err)
}

func (d *Dispatcher) SendExpiry(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool {
	text := d.render(ctx, KindExpiry, community, username, expires)
	err := d.sendWithRenewButton(userID, text)
	return d.report(KindExpiry, userID, err)
}

func (d *Dispatcher) sendWithRenewButton(userID int64, text string) error {
	if d.miniAppURL == "" {
		return d.sender.SendMessage(userID, text)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Renew Subscription", d.miniAppURL),
		),
	)
	return d.sender.SendKeyboard(userID, text, keyboard)
}

func (d *Dispatcher) render(ctx context.Context, kind Kind, community *communities.Community, username string, expires *time.Time) string {
	template := d.defaults.forKind(kind)
	if kind == KindWelcome && expires == nil {
		template = d.defaults.WelcomeJoin
	}

	settings, err := d.settings.GetOrDefault(ctx, community.ID)
	if err != nil {
		d.logger.Warn("load settings failed, using default template",
			slog.Int64("community_id", community.ID),
			slog.String("error", err.Error()))
	} else if override := templateOverride(settings, kind); override != nil {
		template = *override
	}

	expiresText := "forever"
	if expires != nil {
		expiresText = expires.Format("02 Jan 2006")
	}
	if username == "" {
		username = "there"
	}

	return Render(template, map[string]string{
		"community": community.Title,
		"username":  username,
		"expires":   expiresText,
	})
}

func templateOverride(settings *botsettings.Settings, kind Kind) *string {
	switch kind {
	case KindWelcome:
		return settings.WelcomeTemplate
	case KindReminder:
		return settings.ReminderTemplate
	case KindExpiry:
		return settings.ExpiryTemplate
	default:
		return nil
	}
}

func (d *Dispatcher) report(kind Kind, userID int64, err error) bool {
	if err != nil {
		d.logger.Error("notification send failed",
			slog.String("kind", string(kind)),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		recordSent(kind, false)
		return false
	}

	recordSent(kind, true)
	return true
}
