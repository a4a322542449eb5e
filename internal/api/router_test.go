package api_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/stitts-dev/ff-leaderboard/internal/api"
	"github.com/stitts-dev/ff-leaderboard/internal/api/handlers"
	"github.com/stitts-dev/ff-leaderboard/internal/models"
	"github.com/stitts-dev/ff-leaderboard/internal/providers"
	"github.com/stitts-dev/ff-leaderboard/internal/scoring"
	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/config"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// fakeSource serves fixed rows and records the periods it was asked for.
type fakeSource struct {
	rows  []models.PlayerStatRow
	err   error
	calls []string
}

func (f *fakeSource) FetchPlayerStats(ctx context.Context, season int, week *int) ([]models.PlayerStatRow, error) {
	f.calls = append(f.calls, services.StatsCacheKey(season, week))
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.PlayerStatRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSource) FetchSchedule(ctx context.Context, season int) (*providers.Table, error) {
	return &providers.Table{
		Columns: []string{"game_id", "season"},
		Rows: []map[string]string{
			{"game_id": "2024_01_BAL_KC", "season": "2024"},
			{"game_id": "2024_01_GB_PHI", "season": "2024"},
		},
	}, nil
}

func (f *fakeSource) FetchTeamStats(ctx context.Context, season int, statType string) (*providers.Table, error) {
	if statType != "week" && statType != "reg" {
		return nil, utils.NewValidationError("invalid stat_type")
	}
	return &providers.Table{Columns: []string{"team"}, Rows: []map[string]string{{"team": "BUF"}}}, nil
}

func (f *fakeSource) FetchPlayerIDs(ctx context.Context) (*providers.Table, error) {
	rows := make([]map[string]string, 150)
	for i := range rows {
		rows[i] = map[string]string{"gsis_id": "00-000"}
	}
	return &providers.Table{Columns: []string{"gsis_id"}, Rows: rows}, nil
}

type RouterTestSuite struct {
	suite.Suite
	source *fakeSource
	router *gin.Engine
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (suite *RouterTestSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	suite.source = &fakeSource{rows: []models.PlayerStatRow{
		{PlayerID: "B", PlayerName: "Player B", Position: models.PositionRB, StatLine: models.StatLine{RushTD: 2, RushYards: 100, Receptions: 5}},
		{PlayerID: "A", PlayerName: "Player A", Position: models.PositionQB, StatLine: models.StatLine{PassTD: 4, PassYards: 300}},
		{PlayerID: "C", PlayerName: "Player C", Position: models.PositionWR, StatLine: models.StatLine{Receptions: 6, RecYards: 80}},
	}}

	cfg := &config.Config{
		CorsOrigins:   []string{"*"},
		CurrentSeason: 2024,
		FirstSeason:   1999,
		WeeksInSeason: 18,
		DefaultTopN:   25,
		MaxTopN:       500,
		ScoringFormat: scoring.FormatPPR,
		StatsBaseURL:  "https://example.invalid",
		SeasonTypes:   []string{"REG", "POST"},
	}

	rules, err := scoring.Preset(cfg.ScoringFormat)
	suite.Require().NoError(err)

	breakers := services.NewCircuitBreakerService(5, time.Minute, logger)
	stats := services.NewStatsService(services.StatsServiceOptions{
		Source:    suite.source,
		Reference: suite.source,
		Breaker:   breakers,
		Rules:     rules,
		Seasons:   services.NewSeasonCatalog(cfg.FirstSeason, cfg.CurrentSeason, cfg.WeeksInSeason),
	}, logger)

	suite.router = api.NewRouter(api.Dependencies{
		Config:   cfg,
		Stats:    stats,
		Breakers: breakers,
		Logger:   logger,
	})
}

func (suite *RouterTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) decodeError(w *httptest.ResponseRecorder) utils.ErrorResponse {
	var body utils.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (suite *RouterTestSuite) TestLeaderboard_Defaults() {
	w := suite.get("/api/leaderboard")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body handlers.LeaderboardResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))

	suite.True(body.Success)
	suite.Require().Len(body.Leaderboard, 3)
	suite.Equal("A", body.Leaderboard[0].PlayerID)
	suite.Equal(36.0, body.Leaderboard[0].FantasyPoints)
	suite.Equal(1, body.Leaderboard[0].Rank)
	suite.Equal("B", body.Leaderboard[1].PlayerID)
	suite.Equal(27.0, body.Leaderboard[1].FantasyPoints)
	suite.Equal("C", body.Leaderboard[2].PlayerID)
	suite.Equal(14.0, body.Leaderboard[2].FantasyPoints)

	suite.Equal(2024, body.Metadata.Season)
	suite.Nil(body.Metadata.Week)
	suite.Equal(3, body.Metadata.TotalPlayers)
	suite.Equal(36.0, body.Metadata.TopScore)
	suite.InDelta(25.6667, body.Metadata.AverageScore, 0.001)
	suite.Equal("PPR (Points Per Reception)", body.Metadata.ScoringSystem)
	suite.Contains(body.Metadata.DataSource, "(all weeks)")
	suite.False(body.Metadata.GeneratedAt.IsZero())
	suite.Equal(3, body.FullLeaderboardCount)
	suite.Equal([]string{"stats:2024:all"}, suite.source.calls)
}

func (suite *RouterTestSuite) TestLeaderboard_FilterAndTruncate() {
	w := suite.get("/api/leaderboard?season=2023&week=4&top_n=1&position=RB,%20WR")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body handlers.LeaderboardResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))

	suite.Require().Len(body.Leaderboard, 1)
	suite.Equal("B", body.Leaderboard[0].PlayerID)
	suite.Equal(2, body.Metadata.TotalPlayers)
	suite.Equal(2, body.FullLeaderboardCount)
	suite.Equal(27.0, body.Metadata.TopScore)
	suite.Equal(20.5, body.Metadata.AverageScore)
	suite.Require().NotNil(body.Metadata.Week)
	suite.Equal(4, *body.Metadata.Week)
	suite.Equal([]string{"stats:2023:4"}, suite.source.calls)
}

func (suite *RouterTestSuite) TestLeaderboard_EmptyAfterFilter() {
	w := suite.get("/api/leaderboard?position=K")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body handlers.LeaderboardResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Empty(body.Leaderboard)
	suite.Equal(0, body.Metadata.TotalPlayers)
	suite.Equal(0.0, body.Metadata.TopScore)
	suite.Equal(0.0, body.Metadata.AverageScore)
}

func (suite *RouterTestSuite) TestLeaderboard_ValidationErrors() {
	paths := []string{
		"/api/leaderboard?season=abc",
		"/api/leaderboard?week=two",
		"/api/leaderboard?week=0",
		"/api/leaderboard?week=19",
		"/api/leaderboard?top_n=0",
		"/api/leaderboard?top_n=-3",
		"/api/leaderboard?top_n=501",
		"/api/leaderboard?position=qb",
		"/api/leaderboard?position=QB,,RB",
		"/api/leaderboard?position=DST",
	}
	for _, path := range paths {
		w := suite.get(path)
		suite.Equal(http.StatusBadRequest, w.Code, path)
		body := suite.decodeError(w)
		suite.False(body.Success, path)
		suite.Equal(utils.ErrCodeValidation, body.Code, path)
		suite.NotEmpty(body.Error, path)
	}
	suite.Empty(suite.source.calls)
}

func (suite *RouterTestSuite) TestLeaderboard_SeasonOutOfRange() {
	w := suite.get("/api/leaderboard?season=1990")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(utils.ErrCodeDataUnavailable, suite.decodeError(w).Code)
	suite.Empty(suite.source.calls)
}

func (suite *RouterTestSuite) TestLeaderboard_UpstreamErrors() {
	suite.source.err = utils.NewUpstreamFetchError("failed to reach stat provider",
		errors.New("GET http://10.0.0.7/player_stats_2024.csv: connection refused"))
	w := suite.get("/api/leaderboard")
	suite.Equal(http.StatusBadGateway, w.Code)
	body := suite.decodeError(w)
	suite.Equal(utils.ErrCodeUpstreamFetch, body.Code)
	suite.Empty(body.Details)
	suite.NotContains(w.Body.String(), "connection refused")
	suite.NotContains(w.Body.String(), "10.0.0.7")

	suite.source.err = utils.NewDataUnavailable("no statistics available for season 2024 week 18", nil)
	w = suite.get("/api/leaderboard?week=18")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(utils.ErrCodeDataUnavailable, suite.decodeError(w).Code)
}

func (suite *RouterTestSuite) TestLeaderboard_CallerDeadlineIsNotUpstream() {
	suite.source.err = fmt.Errorf("GET http://10.0.0.7/player_stats_2024.csv: %w", context.DeadlineExceeded)
	w := suite.get("/api/leaderboard")
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal(utils.ErrCodeInternal, suite.decodeError(w).Code)
	suite.NotContains(w.Body.String(), "10.0.0.7")
}

func (suite *RouterTestSuite) TestLeaderboard_UnexpectedErrorIsInternal() {
	suite.source.err = errors.New("boom")
	w := suite.get("/api/leaderboard")
	suite.Equal(http.StatusInternalServerError, w.Code)
	body := suite.decodeError(w)
	suite.Equal(utils.ErrCodeInternal, body.Code)
	suite.NotContains(w.Body.String(), "boom")
}

func (suite *RouterTestSuite) TestPlayerStats() {
	w := suite.get("/api/stats/2024/3")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body handlers.PlayerStatsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.True(body.Success)
	suite.Equal(3, body.Week)
	suite.Require().Len(body.Stats, 3)
	suite.Equal("A", body.Stats[0].PlayerID)
	suite.Equal(3, body.Stats[2].Rank)

	suite.Equal(http.StatusBadRequest, suite.get("/api/stats/2024/x").Code)
	suite.Equal(http.StatusBadRequest, suite.get("/api/stats/2024/25").Code)
}

func (suite *RouterTestSuite) TestDownloadCSV() {
	w := suite.get("/api/download-csv?season=2024&week=2")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("attachment; filename=fantasy_leaderboard_2024_w2.csv", w.Header().Get("Content-Disposition"))
	suite.Contains(w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 4)
	suite.Equal("rank", records[0][0])
	suite.Equal("fantasy_points", records[0][len(records[0])-1])
	suite.Equal([]string{"1", "A", "Player A", "QB"}, records[1][:4])
	suite.Equal("36", records[1][len(records[1])-1])

	w = suite.get("/api/download-csv")
	suite.Equal("attachment; filename=fantasy_leaderboard_2024_wall.csv", w.Header().Get("Content-Disposition"))
}

func (suite *RouterTestSuite) TestSeasonsAndScoring() {
	w := suite.get("/api/seasons")
	suite.Require().Equal(http.StatusOK, w.Code)
	var seasons struct {
		Seasons []int `json:"seasons"`
		Current int   `json:"current"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &seasons))
	suite.Equal(2024, seasons.Current)
	suite.Len(seasons.Seasons, 26)
	suite.Equal(1999, seasons.Seasons[0])
	suite.Equal(2024, seasons.Seasons[len(seasons.Seasons)-1])

	w = suite.get("/api/scoring")
	suite.Require().Equal(http.StatusOK, w.Code)
	var scoringBody struct {
		ScoringSystem string             `json:"scoring_system"`
		Rules         map[string]float64 `json:"rules"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &scoringBody))
	suite.Equal("PPR (Points Per Reception)", scoringBody.ScoringSystem)
	suite.Equal(1.0, scoringBody.Rules["reception"])
	suite.Equal(0.04, scoringBody.Rules["pass_yards"])
	suite.Equal(-2.0, scoringBody.Rules["fumble_lost"])
}

func (suite *RouterTestSuite) TestReferenceEndpoints() {
	w := suite.get("/api/schedule?season=2024")
	suite.Require().Equal(http.StatusOK, w.Code)
	var schedule struct {
		GamesCount int                 `json:"games_count"`
		Schedule   []map[string]string `json:"schedule"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &schedule))
	suite.Equal(2, schedule.GamesCount)

	suite.Equal(http.StatusOK, suite.get("/api/team-stats").Code)
	suite.Equal(http.StatusBadRequest, suite.get("/api/team-stats?stat_type=bogus").Code)

	w = suite.get("/api/player-ids")
	suite.Require().Equal(http.StatusOK, w.Code)
	var ids struct {
		TotalPlayers int                 `json:"total_players"`
		PlayerIDs    []map[string]string `json:"player_ids"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ids))
	suite.Equal(150, ids.TotalPlayers)
	suite.Len(ids.PlayerIDs, 100)
}

func (suite *RouterTestSuite) TestHealth() {
	w := suite.get("/api/health")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("healthy", body["status"])
	suite.Equal("disabled", body["cache"])
	breakers, ok := body["circuit_breakers"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("closed", breakers[services.BreakerStats])
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (suite *RouterTestSuite) TestUnknownRoute() {
	w := suite.get("/api/does-not-exist")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.JSONEq(`{"error":"Endpoint not found"}`, w.Body.String())
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
