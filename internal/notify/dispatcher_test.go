package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
)

type sentMessage struct {
	chatID   int64
	text     string
	photoURL string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type fakeSender struct {
	sent    []sentMessage
	failAll bool
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	if f.failAll {
		return errors.New("telegram: forbidden")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) SendKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if f.failAll {
		return errors.New("telegram: forbidden")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: &keyboard})
	return nil
}

func (f *fakeSender) SendPhoto(chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if f.failAll {
		return errors.New("telegram: forbidden")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: caption, photoURL: photoURL, keyboard: keyboard})
	return nil
}

type fakeSettings struct {
	settings map[int64]*botsettings.Settings
}

func (f *fakeSettings) GetOrDefault(_ context.Context, communityID int64) (*botsettings.Settings, error) {
	if s, ok := f.settings[communityID]; ok {
		return s, nil
	}
	return &botsettings.Settings{CommunityID: communityID, ReminderDays: botsettings.DefaultReminderDays}, nil
}

func newTestDispatcher(t *testing.T, sender *fakeSender, settings *fakeSettings) *Dispatcher {
	t.Helper()
	if settings == nil {
		settings = &fakeSettings{}
	}
	d, err := NewDispatcher(sender, settings, "https://t.me/MembifyBot/app", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return d
}

func TestSendWelcomeRendersDefaultTemplate(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, nil)

	expires := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	ok := d.SendWelcome(context.Background(), 100, &communities.Community{
		ID:    1,
		Title: "Crypto Traders",
	}, "alice", &expires)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(100), sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "Crypto Traders")
	assert.Contains(t, sender.sent[0].text, "alice")
	assert.Contains(t, sender.sent[0].text, "15 Jul 2024")
}

func TestSendWelcomeUsesCommunityOverride(t *testing.T) {
	sender := &fakeSender{}
	settings := &fakeSettings{settings: map[int64]*botsettings.Settings{
		1: {
			CommunityID:     1,
			WelcomeTemplate: lo.ToPtr("custom hello {{username}}"),
		},
	}}
	d := newTestDispatcher(t, sender, settings)

	ok := d.SendWelcome(context.Background(), 100, &communities.Community{ID: 1, Title: "X"}, "bob", nil)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "custom hello bob", sender.sent[0].text)
}

func TestSendWelcomeAttachesJoinButton(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, nil)

	ok := d.SendWelcome(context.Background(), 100, &communities.Community{
		ID:         1,
		Title:      "X",
		InviteLink: lo.ToPtr("https://t.me/+abc"),
	}, "alice", nil)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	require.NotNil(t, sender.sent[0].keyboard)
	button := sender.sent[0].keyboard.InlineKeyboard[0][0]
	assert.Equal(t, "Join Community", button.Text)
	assert.Equal(t, "https://t.me/+abc", *button.URL)
}

func TestSendWelcomeWithPhotoSendsCaption(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, nil)

	ok := d.SendWelcome(context.Background(), 100, &communities.Community{
		ID:       1,
		Title:    "X",
		PhotoURL: lo.ToPtr("https://cdn.example.com/x.jpg"),
	}, "alice", nil)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "https://cdn.example.com/x.jpg", sender.sent[0].photoURL)
}

func TestSendFailureIsSoft(t *testing.T) {
	sender := &fakeSender{failAll: true}
	d := newTestDispatcher(t, sender, nil)

	ok := d.SendExpiry(context.Background(), 100, &communities.Community{ID: 1, Title: "X"}, "alice", nil)

	assert.False(t, ok)
	assert.Empty(t, sender.sent)
}

func TestSendWelcomeWithoutExpiryUsesJoinGreeting(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, nil)

	ok := d.SendWelcome(context.Background(), 100, &communities.Community{ID: 1, Title: "X"}, "alice", nil)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.NotContains(t, sender.sent[0].text, "forever")
	assert.NotContains(t, sender.sent[0].text, "subscription")
	assert.Contains(t, sender.sent[0].text, "Welcome to <b>X</b>")
}

func TestSendReminderAttachesRenewButton(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, nil)

	ok := d.SendReminder(context.Background(), 100, &communities.Community{ID: 1, Title: "X"}, "alice", nil)

	require.True(t, ok)
	require.Len(t, sender.sent, 1)
	require.NotNil(t, sender.sent[0].keyboard)
	button := sender.sent[0].keyboard.InlineKeyboard[0][0]
	assert.Equal(t, "Renew Subscription", button.Text)
	assert.Equal(t, "https://t.me/MembifyBot/app", *button.URL)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	out := Render("hi {{username}}, see {{unknown}}", map[string]string{"username": "a"})
	assert.Equal(t, "hi a, see {{unknown}}", out)
}
