package telegram

import (
	"slices"

	"membify/internal/config"
)

// OwnerChecker gates admin commands to the configured community owners.
type OwnerChecker struct {
	ownerIDs []int64
}

func NewOwnerChecker(cfg *config.TelegramConfig) *OwnerChecker {
	return &OwnerChecker{
		ownerIDs: cfg.OwnerIDs,
	}
}

func (o *OwnerChecker) IsOwner(telegramID int64) bool {
	return slices.Contains(o.ownerIDs, telegramID)
}
