package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

const appName = "Fantasy Football Leaderboard"

// Pinger is satisfied by the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderInfo describes the configured stat provider for health output.
type ProviderInfo struct {
	Name          string   `json:"name"`
	BaseURL       string   `json:"base_url"`
	SeasonTypes   []string `json:"season_types"`
	ScoringFormat string   `json:"scoring_format"`
}

type MetaHandler struct {
	stats    *services.StatsService
	breakers *services.CircuitBreakerService
	cache    Pinger
	provider ProviderInfo
	logger   *logrus.Logger
}

// NewMetaHandler serves seasons, scoring and health. cache may be nil.
func NewMetaHandler(stats *services.StatsService, breakers *services.CircuitBreakerService, cache Pinger, provider ProviderInfo, logger *logrus.Logger) *MetaHandler {
	return &MetaHandler{
		stats:    stats,
		breakers: breakers,
		cache:    cache,
		provider: provider,
		logger:   logger,
	}
}

// GetSeasons returns the seasons a leaderboard can be requested for
// GET /api/seasons
func (h *MetaHandler) GetSeasons(c *gin.Context) {
	catalog := h.stats.Seasons()
	utils.SendSuccess(c, gin.H{
		"seasons":         catalog.Seasons(),
		"current":         catalog.Current(),
		"weeks_in_season": catalog.WeeksInSeason(),
	})
}

// GetScoring returns the active scoring rules
// GET /api/scoring
func (h *MetaHandler) GetScoring(c *gin.Context) {
	rules := h.stats.Rules()
	utils.SendSuccess(c, gin.H{
		"scoring_system": rules.Name(),
		"rules":          rules.Rules(),
	})
}

// GetHealth always answers 200 while the process is serving. Dependency
// problems are reported in the body.
// GET /api/health
func (h *MetaHandler) GetHealth(c *gin.Context) {
	cacheStatus := "disabled"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Cache health check failed")
			cacheStatus = "unreachable"
		} else {
			cacheStatus = "ok"
		}
	}

	utils.SendSuccess(c, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC(),
		"app":              appName,
		"current_season":   h.stats.Seasons().Current(),
		"provider":         h.provider,
		"circuit_breakers": h.breakers.States(),
		"cache":            cacheStatus,
	})
}
