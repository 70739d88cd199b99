package botsettings

import "context"

type (
	Storage interface {
		GetSettings(ctx context.Context, communityID int64) (*Settings, error)
		UpsertSettings(ctx context.Context, communityID int64, params UpdateParams) (*Settings, error)
	}
)
