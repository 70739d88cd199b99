package storage

import (
	"context"
	"fmt"
)

// Migrate creates the schema. Statements are idempotent so the bot can run
// them on every start.
func (s *storageImpl) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS communities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_telegram_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL UNIQUE,
			title TEXT NOT NULL,
			invite_link TEXT,
			photo_url TEXT,
			member_count INTEGER NOT NULL DEFAULT 0,
			subscriber_count INTEGER NOT NULL DEFAULT 0,
			total_revenue INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_communities_owner ON communities(owner_telegram_id)`,

		`CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			community_id INTEGER NOT NULL,
			telegram_user_id INTEGER NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			joined_at DATETIME NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			sub_status TEXT NOT NULL DEFAULT 'none',
			subscription_start DATETIME,
			subscription_end DATETIME,
			plan_id INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(community_id, telegram_user_id),
			FOREIGN KEY (community_id) REFERENCES communities(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_community ON subscribers(community_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_sub_end ON subscribers(subscription_end)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			community_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			price INTEGER NOT NULL,
			currency TEXT NOT NULL DEFAULT 'usd',
			interval_days INTEGER NOT NULL DEFAULT 0,
			features TEXT NOT NULL DEFAULT '[]',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (community_id) REFERENCES communities(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_community ON plans(community_id)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			community_id INTEGER NOT NULL,
			subscriber_id INTEGER NOT NULL,
			plan_id INTEGER NOT NULL,
			provider TEXT NOT NULL,
			provider_payment_id TEXT,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL DEFAULT 'usd',
			status TEXT NOT NULL DEFAULT 'pending',
			payment_url TEXT,
			processed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (community_id) REFERENCES communities(id),
			FOREIGN KEY (subscriber_id) REFERENCES subscribers(id),
			FOREIGN KEY (plan_id) REFERENCES plans(id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_id
			ON payments(provider, provider_payment_id)
			WHERE provider_payment_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,

		`CREATE TABLE IF NOT EXISTS bot_settings (
			community_id INTEGER PRIMARY KEY,
			bot_token TEXT,
			welcome_template TEXT,
			reminder_template TEXT,
			expiry_template TEXT,
			reminder_days INTEGER NOT NULL DEFAULT 3,
			quiet_hours_start INTEGER NOT NULL DEFAULT 0,
			quiet_hours_end INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (community_id) REFERENCES communities(id)
		)`,

		`CREATE TABLE IF NOT EXISTS sub_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subscriber_id INTEGER NOT NULL,
			payment_id INTEGER,
			kind TEXT NOT NULL,
			new_status TEXT NOT NULL,
			subscription_start DATETIME,
			subscription_end DATETIME,
			plan_id INTEGER,
			notify BOOLEAN NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			applied_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (subscriber_id) REFERENCES subscribers(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sub_transitions_status ON sub_transitions(status)`,
	}

	for i, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
