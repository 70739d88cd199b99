package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client wraps the bot API with a shared rate limiter so every caller goes
// through the same send budget.
type Client struct {
	api     *tgbotapi.BotAPI
	logger  *slog.Logger
	limiter *rate.Limiter
	updates <-chan tgbotapi.Update
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(token string, rateLimit float64, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Client{
		api:     bot,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
	}, nil
}

// Start begins long polling. AllowedUpdates must include the chat_member
// kinds or Telegram omits membership events from the stream.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{
		tgbotapi.UpdateTypeMessage,
		tgbotapi.UpdateTypeCallbackQuery,
		tgbotapi.UpdateTypeChatMember,
		tgbotapi.UpdateTypeMyChatMember,
	}

	c.updates = c.api.GetUpdatesChan(u)

	c.logger.Info("telegram bot started", slog.String("username", c.api.Self.UserName))
	return nil
}

func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.api.StopReceivingUpdates()
	c.logger.Info("telegram bot stopped")
}

// GetUpdates returns the update channel started by Start.
func (c *Client) GetUpdates() <-chan tgbotapi.Update {
	return c.updates
}

func (c *Client) SendMessage(chatID int64, text string) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := c.api.Send(msg)
	if err != nil {
		c.logger.Error("send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (c *Client) SendKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard

	_, err := c.api.Send(msg)
	return err
}

// SendPhoto sends a photo by URL with a caption and optional keyboard.
func (c *Client) SendPhoto(chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}

	_, err := c.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	return nil
}

func (c *Client) Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("rate limiting: %w", err)
	}

	message, err := c.api.Send(chattable)
	if err != nil {
		c.logger.Error("send failed", slog.Any("error", err))
		return tgbotapi.Message{}, fmt.Errorf("send: %w", err)
	}

	return message, nil
}

func (c *Client) Request(chattable tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, fmt.Errorf("rate limiting: %w", err)
	}

	resp, err := c.api.Request(chattable)
	if err != nil {
		c.logger.Error("api request failed", slog.Any("error", err))
		return nil, fmt.Errorf("api request: %w", err)
	}

	return resp, nil
}

// GetChat fetches chat metadata for a chat the bot is a member of.
func (c *Client) GetChat(chatID int64) (*tgbotapi.Chat, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &chat, nil
}

func (c *Client) GetChatTitle(ctx context.Context, chatID int64) (string, error) {
	chat, err := c.GetChat(chatID)
	if err != nil {
		return "", err
	}
	return chat.Title, nil
}

func (c *Client) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	count, err := c.api.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return 0, fmt.Errorf("get chat member count: %w", err)
	}
	return count, nil
}

// CreateInviteLink makes a fresh invite link for the chat. Requires the bot
// to be an admin with the invite permission.
func (c *Client) CreateInviteLink(chatID int64) (string, error) {
	resp, err := c.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", err
	}

	link := struct {
		InviteLink string `json:"invite_link"`
	}{}
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}

	return link.InviteLink, nil
}

// BanChatMember removes a user from the chat.
func (c *Client) BanChatMember(chatID, userID int64) error {
	_, err := c.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	})
	return err
}

// UnbanChatMember lifts a ban so the user can rejoin via invite link.
func (c *Client) UnbanChatMember(chatID, userID int64) error {
	_, err := c.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	})
	return err
}

func (c *Client) GetBotAPI() *tgbotapi.BotAPI {
	return c.api
}
