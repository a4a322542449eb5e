package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/api/middleware"
	"github.com/stitts-dev/ff-leaderboard/internal/leaderboard"
	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/logger"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// LeaderboardMetadata extends the builder's summary with request context.
type LeaderboardMetadata struct {
	leaderboard.Metadata
	ScoringSystem string    `json:"scoring_system"`
	DataSource    string    `json:"data_source"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type LeaderboardResponse struct {
	Success              bool                `json:"success"`
	Leaderboard          []leaderboard.Entry `json:"leaderboard"`
	Metadata             LeaderboardMetadata `json:"metadata"`
	FullLeaderboardCount int                 `json:"full_leaderboard_count"`
}

type PlayerStatsResponse struct {
	Success bool                `json:"success"`
	Season  int                 `json:"season"`
	Week    int                 `json:"week"`
	Stats   []leaderboard.Entry `json:"stats"`
}

type LeaderboardHandler struct {
	stats       *services.StatsService
	defaultTopN int
	maxTopN     int
	logger      *logrus.Logger
}

func NewLeaderboardHandler(stats *services.StatsService, defaultTopN, maxTopN int, logger *logrus.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		stats:       stats,
		defaultTopN: defaultTopN,
		maxTopN:     maxTopN,
		logger:      logger,
	}
}

// GetLeaderboard returns the top players for a season or a single week
// GET /api/leaderboard?season=2024&week=3&top_n=25&position=QB,RB
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	season, err := seasonQuery(c, h.stats.Seasons().Current())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	week, err := weekQuery(c)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	topN, err := topNQuery(c, h.defaultTopN, h.maxTopN)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	positions, err := leaderboard.ParsePositions(c.Query("position"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	logger.WithRequestContext(h.logger, c.GetString(middleware.RequestIDKey)).WithFields(logrus.Fields{
		"season":    season,
		"week":      weekLabel(week),
		"top_n":     topN,
		"positions": positions,
	}).Debug("Fetching leaderboard")

	result, err := h.stats.Leaderboard(c.Request.Context(), services.LeaderboardQuery{
		Season:    season,
		Week:      week,
		Positions: positions,
		TopN:      topN,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, LeaderboardResponse{
		Success:     true,
		Leaderboard: result.Entries,
		Metadata: LeaderboardMetadata{
			Metadata:      result.Metadata,
			ScoringSystem: h.stats.Rules().Name(),
			DataSource:    dataSource(season, week),
			GeneratedAt:   time.Now().UTC(),
		},
		FullLeaderboardCount: result.Metadata.TotalPlayers,
	})
}

// GetPlayerStats returns every scored player for one week, best first
// GET /api/stats/:season/:week
func (h *LeaderboardHandler) GetPlayerStats(c *gin.Context) {
	season, err := intParam(c, "season")
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	week, err := intParam(c, "week")
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	entries, err := h.stats.RankedPlayers(c.Request.Context(), season, &week)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, PlayerStatsResponse{
		Success: true,
		Season:  season,
		Week:    week,
		Stats:   entries,
	})
}

func dataSource(season int, week *int) string {
	if week == nil {
		return fmt.Sprintf("nflverse player_stats season %d (all weeks)", season)
	}
	return fmt.Sprintf("nflverse player_stats season %d week %d", season, *week)
}
