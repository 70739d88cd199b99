package members

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Service reconciles subscriber rows against Telegram-reported member
// status. Updates are last-write-wins: concurrent webhook deliveries for
// the same user settle on whichever write lands last.
type Service struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(storage Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ensure returns the subscriber row for (community, telegram user), creating
// an inactive one when checkout happens before the user joins the chat.
func (s *Service) Ensure(ctx context.Context, communityID, telegramUserID int64, username string) (*Subscriber, error) {
	existing, err := s.storage.GetSubscriber(ctx, GetCriteria{
		CommunityID:    &communityID,
		TelegramUserID: &telegramUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.storage.CreateSubscriber(ctx, Subscriber{
		CommunityID:    communityID,
		TelegramUserID: telegramUserID,
		Username:       username,
		JoinedAt:       s.now(),
		IsActive:       false,
		SubStatus:      SubStatusNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	s.logger.Info("Subscriber created ahead of join",
		"subscriber_id", created.ID,
		"community_id", communityID,
		"telegram_user_id", telegramUserID)

	return created, nil
}

// ReconcileRequest carries one chat-member transition.
type ReconcileRequest struct {
	CommunityID    int64
	TelegramUserID int64
	Username       string
	NewStatus      string
}

// Reconcile applies a chat-member transition to the subscriber row for
// (community, telegram user), creating the row on first sighting.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest) (*Outcome, error) {
	membership := ParseMemberStatus(req.NewStatus)
	if membership == MembershipUnknown {
		s.logger.Warn("Ignoring unknown member status",
			"community_id", req.CommunityID,
			"telegram_user_id", req.TelegramUserID,
			"new_status", req.NewStatus)
		return &Outcome{}, nil
	}

	existing, err := s.storage.GetSubscriber(ctx, GetCriteria{
		CommunityID:    &req.CommunityID,
		TelegramUserID: &req.TelegramUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}

	if existing == nil {
		return s.reconcileNew(ctx, req, membership)
	}

	return s.reconcileExisting(ctx, req, membership, existing)
}

func (s *Service) reconcileNew(ctx context.Context, req ReconcileRequest, membership Membership) (*Outcome, error) {
	if membership == MembershipRemoved {
		// A leave event for a user we never saw: record the row inactive so
		// repeated leave webhooks stay idempotent, but send nothing.
		created, err := s.storage.CreateSubscriber(ctx, Subscriber{
			CommunityID:    req.CommunityID,
			TelegramUserID: req.TelegramUserID,
			Username:       req.Username,
			JoinedAt:       s.now(),
			IsActive:       false,
			SubStatus:      SubStatusNone,
		})
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
		return &Outcome{Subscriber: created}, nil
	}

	created, err := s.storage.CreateSubscriber(ctx, Subscriber{
		CommunityID:    req.CommunityID,
		TelegramUserID: req.TelegramUserID,
		Username:       req.Username,
		JoinedAt:       s.now(),
		IsActive:       true,
		SubStatus:      SubStatusNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	s.logger.Info("Subscriber created",
		"subscriber_id", created.ID,
		"community_id", req.CommunityID,
		"telegram_user_id", req.TelegramUserID)

	return &Outcome{Subscriber: created, Event: EventJoined}, nil
}

func (s *Service) reconcileExisting(ctx context.Context, req ReconcileRequest, membership Membership, existing *Subscriber) (*Outcome, error) {
	params := UpdateParams{}
	if req.Username != "" && req.Username != existing.Username {
		params.Username = &req.Username
	}

	event := EventNone
	switch membership {
	case MembershipActive:
		if !existing.IsActive {
			event = EventJoined
		}
		params.IsActive = lo.ToPtr(true)
	case MembershipRemoved:
		if existing.IsActive {
			event = EventLeft
		}
		params.IsActive = lo.ToPtr(false)
		// Removed members keep no subscription claim.
		params.SubStatus = lo.ToPtr(SubStatusNone)
		params.ClearSubscription = true
	}

	updated, err := s.storage.UpdateSubscriber(ctx, GetCriteria{ID: &existing.ID}, params)
	if err != nil {
		return nil, fmt.Errorf("update subscriber: %w", err)
	}

	if event != EventNone {
		s.logger.Info("Subscriber membership changed",
			"subscriber_id", existing.ID,
			"community_id", req.CommunityID,
			"event", string(event))
	}

	return &Outcome{Subscriber: updated, Event: event}, nil
}

func (s *Service) Get(ctx context.Context, criteria GetCriteria) (*Subscriber, error) {
	return s.storage.GetSubscriber(ctx, criteria)
}

func (s *Service) List(ctx context.Context, criteria ListCriteria) ([]*Subscriber, error) {
	return s.storage.ListSubscribers(ctx, criteria)
}
