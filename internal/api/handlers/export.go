package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/leaderboard"
	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

var exportColumns = []string{
	"rank", "player_id", "player_name", "position", "team", "games",
	"pass_yards", "pass_td", "pass_int",
	"rush_yards", "rush_td",
	"reception", "rec_yards", "rec_td",
	"fumble_lost", "two_pt_conversion",
	"fantasy_points",
}

type ExportHandler struct {
	stats  *services.StatsService
	logger *logrus.Logger
}

func NewExportHandler(stats *services.StatsService, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		stats:  stats,
		logger: logger,
	}
}

// DownloadCSV exports the full scored leaderboard as a CSV attachment
// GET /api/download-csv?season=2024&week=3
func (h *ExportHandler) DownloadCSV(c *gin.Context) {
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

	entries, err := h.stats.RankedPlayers(c.Request.Context(), season, week)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	data, err := encodeLeaderboardCSV(entries)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode leaderboard CSV")
		utils.SendInternalError(c, "Failed to export leaderboard")
		return
	}

	filename := fmt.Sprintf("fantasy_leaderboard_%d_w%s.csv", season, weekLabel(week))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func encodeLeaderboardCSV(entries []leaderboard.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}

	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Rank),
			e.PlayerID,
			e.PlayerName,
			string(e.Position),
			e.Team,
			strconv.Itoa(e.Games),
			num(e.PassYards),
			num(e.PassTD),
			num(e.PassInt),
			num(e.RushYards),
			num(e.RushTD),
			num(e.Receptions),
			num(e.RecYards),
			num(e.RecTD),
			num(e.FumblesLost),
			num(e.TwoPtConversions),
			num(e.FantasyPoints),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
