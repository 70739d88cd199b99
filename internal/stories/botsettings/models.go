package botsettings

import "time"

// Settings holds per-community bot configuration: message template
// overrides and scheduling knobs. Nil template fields fall back to the
// embedded defaults in the notify package.
type Settings struct {
	CommunityID      int64
	BotToken         *string
	WelcomeTemplate  *string
	ReminderTemplate *string
	ExpiryTemplate   *string
	// ReminderDays is how many days before expiry the reminder goes out.
	ReminderDays int
	// Quiet hours suppress notifications; hours are 0-23 in UTC. Equal
	// start and end disables the window.
	QuietHoursStart int
	QuietHoursEnd   int
	UpdatedAt       time.Time
}

const DefaultReminderDays = 3

// InQuietHours reports whether hour falls inside the quiet window, handling
// windows that wrap past midnight (e.g. 22..6).
func (s *Settings) InQuietHours(hour int) bool {
	if s.QuietHoursStart == s.QuietHoursEnd {
		return false
	}
	if s.QuietHoursStart < s.QuietHoursEnd {
		return hour >= s.QuietHoursStart && hour < s.QuietHoursEnd
	}
	return hour >= s.QuietHoursStart || hour < s.QuietHoursEnd
}

type UpdateParams struct {
	BotToken         *string
	WelcomeTemplate  *string
	ReminderTemplate *string
	ExpiryTemplate   *string
	ReminderDays     *int
	QuietHoursStart  *int
	QuietHoursEnd    *int
}
