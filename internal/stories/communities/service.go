package communities

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// Service provides business logic for community operations.
type Service struct {
	storage  Storage
	chatInfo ChatInfoProvider
	logger   *slog.Logger
}

func NewService(storage Storage, chatInfo ChatInfoProvider, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		chatInfo: chatInfo,
		logger:   logger,
	}
}

func (s *Service) GetByChatID(ctx context.Context, chatID int64) (*Community, error) {
	return s.storage.GetCommunity(ctx, GetCriteria{ChatID: &chatID})
}

func (s *Service) Get(ctx context.Context, id int64) (*Community, error) {
	return s.storage.GetCommunity(ctx, GetCriteria{ID: &id})
}

func (s *Service) ListByOwner(ctx context.Context, ownerTelegramID int64) ([]*Community, error) {
	return s.storage.ListCommunities(ctx, ListCriteria{
		OwnerTelegramIDs: []int64{ownerTelegramID},
		Limit:            100,
	})
}

// Register creates a community row when the bot is added to a chat, or
// refreshes the stored title when one already exists.
func (s *Service) Register(ctx context.Context, ownerTelegramID, chatID int64, title string) (*Community, error) {
	existing, err := s.storage.GetCommunity(ctx, GetCriteria{ChatID: &chatID})
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}

	if title == "" {
		// Some update kinds omit the chat title; fall back to the live one.
		fetched, err := s.chatInfo.GetChatTitle(ctx, chatID)
		if err != nil {
			s.logger.Warn("Failed to fetch chat title",
				"chat_id", chatID,
				"error", err)
		} else {
			title = fetched
		}
	}

	if existing != nil {
		if title == "" || existing.Title == title {
			return existing, nil
		}
		return s.storage.UpdateCommunity(ctx,
			GetCriteria{ID: &existing.ID},
			UpdateParams{Title: &title})
	}

	created, err := s.storage.CreateCommunity(ctx, Community{
		OwnerTelegramID: ownerTelegramID,
		ChatID:          chatID,
		Title:           title,
	})
	if err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}

	s.logger.Info("Community registered",
		"community_id", created.ID,
		"chat_id", chatID,
		"owner_telegram_id", ownerTelegramID)

	return created, nil
}

// RefreshMemberCount pulls the live member count from Telegram and stores
// it. Failures are soft: the stale counter stays in place.
func (s *Service) RefreshMemberCount(ctx context.Context, communityID int64) error {
	community, err := s.storage.GetCommunity(ctx, GetCriteria{ID: &communityID})
	if err != nil {
		return fmt.Errorf("get community: %w", err)
	}
	if community == nil {
		return fmt.Errorf("community not found: %d", communityID)
	}

	count, err := s.chatInfo.GetChatMemberCount(ctx, community.ChatID)
	if err != nil {
		s.logger.Warn("Failed to fetch chat member count",
			"community_id", communityID,
			"chat_id", community.ChatID,
			"error", err)
		return nil
	}

	_, err = s.storage.UpdateCommunity(ctx,
		GetCriteria{ID: &communityID},
		UpdateParams{MemberCount: lo.ToPtr(count)})
	if err != nil {
		return fmt.Errorf("update community: %w", err)
	}

	return nil
}
