package migrate

import (
	"context"
	"fmt"

	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
)

// MaybeRunDev creates indexes automatically when the app is running in dev mode
// and the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Features.AutoIndex {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "database": cfg.Mongo.Database})
	logg.Info(ctx, "ensuring mongo indexes (dev auto-run)")

	if err := EnsureIndexes(ctx, client.Database()); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}

	logg.Info(ctx, "mongo indexes ensured")
	return nil
}
