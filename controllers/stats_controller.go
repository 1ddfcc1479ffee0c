package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// StatsController provides forum statistics.
type StatsController struct {
	store store.Store
	cache *utils.Cache
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(s store.Store, cache *utils.Cache) *StatsController {
	return &StatsController{store: s, cache: cache}
}

// GetStats returns the user, post and comment counts. Counts are read independently.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := s.cache.GetBytes(ctx.Request.Context(), utils.CacheStatsKey); ok {
		writeCached(ctx, b)
		return
	}

	st, err := store.CollectStatistics(ctx.Request.Context(), s.store)
	if err != nil {
		storageError(ctx, 50070, "failed to collect statistics", err)
		return
	}
	successCached(ctx, s.cache, utils.CacheStatsKey, st)
}
