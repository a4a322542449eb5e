package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/ff-leaderboard/internal/models"
	"github.com/stitts-dev/ff-leaderboard/pkg/logger"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

const userAgent = "ff-leaderboard/1.0 (+https://github.com/stitts-dev/ff-leaderboard)"

// StatSource returns aggregated player statistics for a season, optionally
// narrowed to one week.
type StatSource interface {
	FetchPlayerStats(ctx context.Context, season int, week *int) ([]models.PlayerStatRow, error)
}

// NflverseOptions configures an NflverseClient.
type NflverseOptions struct {
	BaseURL      string
	ScheduleURL  string
	PlayerIDsURL string
	SeasonTypes  []string
	Timeout      time.Duration
	RateLimit    float64 // requests per second
}

// NflverseClient reads the nflverse weekly player stats release files.
type NflverseClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	opts        NflverseOptions
	seasonTypes map[string]struct{}
	logger      *logrus.Logger
}

// NewNflverseClient creates a client for the nflverse data releases
func NewNflverseClient(opts NflverseOptions, logger *logrus.Logger) *NflverseClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	var seasonTypes map[string]struct{}
	if len(opts.SeasonTypes) > 0 {
		seasonTypes = make(map[string]struct{}, len(opts.SeasonTypes))
		for _, st := range opts.SeasonTypes {
			seasonTypes[strings.ToUpper(strings.TrimSpace(st))] = struct{}{}
		}
	}

	return &NflverseClient{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		limiter:     rate.NewLimiter(limit, 1),
		opts:        opts,
		seasonTypes: seasonTypes,
		logger:      logger,
	}
}

// PlayerStatsURL is the release asset holding a season's weekly player stats.
func (c *NflverseClient) PlayerStatsURL(season int) string {
	return fmt.Sprintf("%s/player_stats/player_stats_%d.csv", strings.TrimRight(c.opts.BaseURL, "/"), season)
}

// TeamStatsURL is the release asset holding a season's team stats.
func (c *NflverseClient) TeamStatsURL(season int, statType string) string {
	return fmt.Sprintf("%s/stats_team/stats_team_%s_%d.csv", strings.TrimRight(c.opts.BaseURL, "/"), statType, season)
}

// FetchPlayerStats downloads the season's weekly player stats and aggregates
// them per player. Rows keep the order in which players first appear.
func (c *NflverseClient) FetchPlayerStats(ctx context.Context, season int, week *int) ([]models.PlayerStatRow, error) {
	url := c.PlayerStatsURL(season)
	entry := logger.WithSeasonContext(c.logger, season, week).WithField("component", "nflverse")
	entry.Info("Fetching player stats")

	body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	rows, skipped, err := c.parsePlayerStats(body, season, week)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("reading player stats: %w", ctxErr)
		}
		return nil, err
	}
	if skipped > 0 {
		entry.WithField("rows", skipped).Warn("Discarded rows from other seasons")
	}
	if len(rows) == 0 {
		return nil, utils.NewDataUnavailable(noDataMessage(season, week), nil)
	}

	entry.WithField("players", len(rows)).Info("Aggregated player stats")
	return rows, nil
}

func noDataMessage(season int, week *int) string {
	if week != nil {
		return fmt.Sprintf("No data available for season %d week %d", season, *week)
	}
	return fmt.Sprintf("No data available for season %d", season)
}

// open performs a rate-limited GET and returns the body on 200. When the
// caller's context ends first, the context error is returned as is so it is
// never mistaken for a provider failure.
func (c *NflverseClient) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", ctxErr)
		}
		// the limiter refuses waits that would outlive the deadline
		return nil, fmt.Errorf("waiting for rate limiter: %w: %v", context.DeadlineExceeded, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("GET %s: %w", url, ctxErr)
		}
		return nil, utils.NewUpstreamFetchError("stat provider unreachable", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, utils.NewDataUnavailable("No data published by the provider for this request", nil).
			WithCause(fmt.Errorf("GET %s: %s", url, resp.Status))
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, utils.NewUpstreamFetchError("stat provider returned an error", fmt.Errorf("GET %s: %s (%s)", url, resp.Status, strings.TrimSpace(string(b))))
	}
}

// header maps lower-cased column names to their index.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, name := range cols {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// index returns the first of names present, or -1.
func (h header) index(names ...string) int {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// number parses a numeric cell; blank and NA cells are zero.
func number(rec []string, i int) (float64, error) {
	v := field(rec, i)
	if v == "" || strings.EqualFold(v, "NA") || strings.EqualFold(v, "null") {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

type statColumns struct {
	passYards, passTD, passInt                       int
	rushYards, rushTD                                int
	receptions, recYards, recTD                      int
	sackFumblesLost, rushFumblesLost, recFumblesLost int
	pass2pt, rush2pt, rec2pt                         int
}

func newStatColumns(h header) statColumns {
	return statColumns{
		passYards:       h.index("passing_yards"),
		passTD:          h.index("passing_tds"),
		passInt:         h.index("interceptions", "passing_interceptions"),
		rushYards:       h.index("rushing_yards"),
		rushTD:          h.index("rushing_tds"),
		receptions:      h.index("receptions"),
		recYards:        h.index("receiving_yards"),
		recTD:           h.index("receiving_tds"),
		sackFumblesLost: h.index("sack_fumbles_lost"),
		rushFumblesLost: h.index("rushing_fumbles_lost"),
		recFumblesLost:  h.index("receiving_fumbles_lost"),
		pass2pt:         h.index("passing_2pt_conversions"),
		rush2pt:         h.index("rushing_2pt_conversions"),
		rec2pt:          h.index("receiving_2pt_conversions"),
	}
}

func (sc statColumns) read(rec []string) (models.StatLine, error) {
	var (
		line models.StatLine
		err  error
	)
	get := func(i int) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = number(rec, i)
		return v
	}

	line.PassYards = get(sc.passYards)
	line.PassTD = get(sc.passTD)
	line.PassInt = get(sc.passInt)
	line.RushYards = get(sc.rushYards)
	line.RushTD = get(sc.rushTD)
	line.Receptions = get(sc.receptions)
	line.RecYards = get(sc.recYards)
	line.RecTD = get(sc.recTD)
	line.FumblesLost = get(sc.sackFumblesLost) + get(sc.rushFumblesLost) + get(sc.recFumblesLost)
	line.TwoPtConversions = get(sc.pass2pt) + get(sc.rush2pt) + get(sc.rec2pt)
	return line, err
}

// parsePlayerStats aggregates weekly rows into one row per player. It
// returns the number of rows discarded because they belong to another season.
func (c *NflverseClient) parsePlayerStats(r io.Reader, season int, week *int) ([]models.PlayerStatRow, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, utils.NewUpstreamFetchError("malformed stats payload", fmt.Errorf("read header: %w", err))
	}
	h := newHeader(cols)

	iID := h.index("player_id")
	iName := h.index("player_display_name", "player_name")
	iSeason := h.index("season")
	iWeek := h.index("week")
	iSeasonType := h.index("season_type")
	iPos := h.index("position")
	iTeam := h.index("recent_team", "team")
	if iID < 0 || iName < 0 || iSeason < 0 || iWeek < 0 {
		return nil, 0, utils.NewUpstreamFetchError("malformed stats payload",
			fmt.Errorf("required columns missing (need player_id, player_name, season, week)"))
	}
	stats := newStatColumns(h)

	byID := make(map[string]int)
	var rows []models.PlayerStatRow
	skipped := 0
	line := 1

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, 0, utils.NewUpstreamFetchError("malformed stats payload", fmt.Errorf("line %d: %w", line, err))
		}

		s, err := strconv.Atoi(field(rec, iSeason))
		if err != nil {
			return nil, 0, utils.NewUpstreamFetchError("malformed stats payload", fmt.Errorf("line %d: bad season %q", line, field(rec, iSeason)))
		}
		if s != season {
			skipped++
			continue
		}
		if c.seasonTypes != nil && iSeasonType >= 0 {
			if _, ok := c.seasonTypes[strings.ToUpper(field(rec, iSeasonType))]; !ok {
				continue
			}
		}
		if week != nil {
			w, err := strconv.Atoi(field(rec, iWeek))
			if err != nil {
				return nil, 0, utils.NewUpstreamFetchError("malformed stats payload", fmt.Errorf("line %d: bad week %q", line, field(rec, iWeek)))
			}
			if w != *week {
				continue
			}
		}

		id := field(rec, iID)
		if id == "" {
			continue
		}
		statLine, err := stats.read(rec)
		if err != nil {
			return nil, 0, utils.NewUpstreamFetchError("malformed stats payload", fmt.Errorf("line %d: %w", line, err))
		}

		idx, ok := byID[id]
		if !ok {
			idx = len(rows)
			byID[id] = idx
			rows = append(rows, models.PlayerStatRow{PlayerID: id})
		}
		row := &rows[idx]
		row.Games++
		row.StatLine = row.StatLine.Add(statLine)
		if name := field(rec, iName); name != "" {
			row.PlayerName = name
		}
		if pos := field(rec, iPos); pos != "" {
			row.Position = models.Position(strings.ToUpper(pos))
		}
		if team := field(rec, iTeam); team != "" {
			row.Team = team
		}
	}

	return rows, skipped, nil
}
