package botsettings

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidSettings marks settings updates rejected by validation, so
// callers can report them as client errors.
var ErrInvalidSettings = errors.New("invalid settings")

// Service provides business logic for bot settings.
type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{
		storage: storage,
	}
}

// GetOrDefault returns the community's settings, or defaults when none are
// stored yet.
func (s *Service) GetOrDefault(ctx context.Context, communityID int64) (*Settings, error) {
	settings, err := s.storage.GetSettings(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings != nil {
		return settings, nil
	}

	return &Settings{
		CommunityID:  communityID,
		ReminderDays: DefaultReminderDays,
	}, nil
}

func (s *Service) Update(ctx context.Context, communityID int64, params UpdateParams) (*Settings, error) {
	if params.ReminderDays != nil && *params.ReminderDays < 0 {
		return nil, fmt.Errorf("%w: reminder days must not be negative", ErrInvalidSettings)
	}
	for _, hour := range []*int{params.QuietHoursStart, params.QuietHoursEnd} {
		if hour != nil && (*hour < 0 || *hour > 23) {
			return nil, fmt.Errorf("%w: quiet hours must be within 0..23", ErrInvalidSettings)
		}
	}

	return s.storage.UpsertSettings(ctx, communityID, params)
}
