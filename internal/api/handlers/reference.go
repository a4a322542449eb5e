package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

const playerIDsPreview = 100

// ReferenceHandler serves the raw nflverse tables alongside the leaderboard.
type ReferenceHandler struct {
	stats *services.StatsService
}

func NewReferenceHandler(stats *services.StatsService) *ReferenceHandler {
	return &ReferenceHandler{stats: stats}
}

// GetSchedule returns the season's games
// GET /api/schedule?season=2024
func (h *ReferenceHandler) GetSchedule(c *gin.Context) {
	season, err := seasonQuery(c, h.stats.Seasons().Current())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	table, err := h.stats.Schedule(c.Request.Context(), season)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"success":     true,
		"season":      season,
		"games_count": len(table.Rows),
		"columns":     table.Columns,
		"schedule":    table.Rows,
	})
}

// GetTeamStats returns team level stats
// GET /api/team-stats?season=2024&stat_type=week
func (h *ReferenceHandler) GetTeamStats(c *gin.Context) {
	season, err := seasonQuery(c, h.stats.Seasons().Current())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	statType := c.DefaultQuery("stat_type", "week")

	table, err := h.stats.TeamStats(c.Request.Context(), season, statType)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"success":   true,
		"season":    season,
		"stat_type": statType,
		"columns":   table.Columns,
		"stats":     table.Rows,
	})
}

// GetPlayerIDs returns the first rows of the cross-provider player ID mapping
// GET /api/player-ids
func (h *ReferenceHandler) GetPlayerIDs(c *gin.Context) {
	table, err := h.stats.PlayerIDs(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	rows := table.Rows
	if len(rows) > playerIDsPreview {
		rows = rows[:playerIDsPreview]
	}

	utils.SendSuccess(c, gin.H{
		"success":       true,
		"total_players": len(table.Rows),
		"columns":       table.Columns,
		"player_ids":    rows,
	})
}
