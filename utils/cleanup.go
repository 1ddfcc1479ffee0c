package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/store"
)

// PruneSearchTags deletes search tags not used within retention.
func PruneSearchTags(ctx context.Context, s store.Store, retention time.Duration, now time.Time) (int64, error) {
	res, err := s.PruneSearchTags(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// StartSearchTagPruner schedules search tag pruning on cfg.PruneSchedule.
// It returns nil when pruning is disabled. Stop the returned cron on shutdown.
func StartSearchTagPruner(cfg config.AppConfig, s store.Store) (*cron.Cron, error) {
	if cfg.SearchTagRetentionDays <= 0 {
		return nil, nil
	}
	retention := time.Duration(cfg.SearchTagRetentionDays) * 24 * time.Hour

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(cfg.PruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := PruneSearchTags(ctx, s, retention, time.Now().UTC())
		if err != nil {
			Logger.Error("search tag prune failed", zap.Error(err))
			return
		}
		Logger.Info("search tags pruned", zap.Int64("deleted", n))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
