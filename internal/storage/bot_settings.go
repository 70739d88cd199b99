package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/botsettings"
)

const botSettingsTable = "bot_settings"

var botSettingsRowFields = fields(botSettingsRow{})

type botSettingsRow struct {
	CommunityID      int64     `db:"community_id"`
	BotToken         *string   `db:"bot_token"`
	WelcomeTemplate  *string   `db:"welcome_template"`
	ReminderTemplate *string   `db:"reminder_template"`
	ExpiryTemplate   *string   `db:"expiry_template"`
	ReminderDays     int       `db:"reminder_days"`
	QuietHoursStart  int       `db:"quiet_hours_start"`
	QuietHoursEnd    int       `db:"quiet_hours_end"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r botSettingsRow) ToModel() *botsettings.Settings {
	return &botsettings.Settings{
		CommunityID:      r.CommunityID,
		BotToken:         r.BotToken,
		WelcomeTemplate:  r.WelcomeTemplate,
		ReminderTemplate: r.ReminderTemplate,
		ExpiryTemplate:   r.ExpiryTemplate,
		ReminderDays:     r.ReminderDays,
		QuietHoursStart:  r.QuietHoursStart,
		QuietHoursEnd:    r.QuietHoursEnd,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (s *storageImpl) GetSettings(ctx context.Context, communityID int64) (*botsettings.Settings, error) {
	q, args, err := s.stmpBuilder().
		Select(botSettingsRowFields).
		From(botSettingsTable).
		Where(sq.Eq{"community_id": communityID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row botSettingsRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) UpsertSettings(ctx context.Context, communityID int64, params botsettings.UpdateParams) (*botsettings.Settings, error) {
	existing, err := s.GetSettings(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		insert := map[string]interface{}{
			"community_id":      communityID,
			"reminder_days":     botsettings.DefaultReminderDays,
			"quiet_hours_start": 0,
			"quiet_hours_end":   0,
			"updated_at":        s.now(),
		}
		if params.BotToken != nil {
			insert["bot_token"] = *params.BotToken
		}
		if params.WelcomeTemplate != nil {
			insert["welcome_template"] = *params.WelcomeTemplate
		}
		if params.ReminderTemplate != nil {
			insert["reminder_template"] = *params.ReminderTemplate
		}
		if params.ExpiryTemplate != nil {
			insert["expiry_template"] = *params.ExpiryTemplate
		}
		if params.ReminderDays != nil {
			insert["reminder_days"] = *params.ReminderDays
		}
		if params.QuietHoursStart != nil {
			insert["quiet_hours_start"] = *params.QuietHoursStart
		}
		if params.QuietHoursEnd != nil {
			insert["quiet_hours_end"] = *params.QuietHoursEnd
		}

		q, args, err := s.stmpBuilder().
			Insert(botSettingsTable).
			SetMap(insert).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build sql query: %w", err)
		}

		_, err = s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("db.ExecContext: %w", err)
		}

		return s.GetSettings(ctx, communityID)
	}

	query := s.stmpBuilder().
		Update(botSettingsTable).
		Set("updated_at", s.now()).
		Where(sq.Eq{"community_id": communityID})

	if params.BotToken != nil {
		query = query.Set("bot_token", *params.BotToken)
	}
	if params.WelcomeTemplate != nil {
		query = query.Set("welcome_template", *params.WelcomeTemplate)
	}
	if params.ReminderTemplate != nil {
		query = query.Set("reminder_template", *params.ReminderTemplate)
	}
	if params.ExpiryTemplate != nil {
		query = query.Set("expiry_template", *params.ExpiryTemplate)
	}
	if params.ReminderDays != nil {
		query = query.Set("reminder_days", *params.ReminderDays)
	}
	if params.QuietHoursStart != nil {
		query = query.Set("quiet_hours_start", *params.QuietHoursStart)
	}
	if params.QuietHoursEnd != nil {
		query = query.Set("quiet_hours_end", *params.QuietHoursEnd)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetSettings(ctx, communityID)
}
