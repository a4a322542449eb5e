package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// Table is a CSV document as a list of column -> value records.
type Table struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// RowFilter decides whether a record is kept while reading a table.
type RowFilter func(row map[string]string) bool

// SeasonFilter keeps rows whose season column equals season.
func SeasonFilter(season int) RowFilter {
	want := strconv.Itoa(season)
	return func(row map[string]string) bool {
		return row["season"] == want
	}
}

// FetchSchedule returns the season's games.
func (c *NflverseClient) FetchSchedule(ctx context.Context, season int) (*Table, error) {
	return c.fetchTable(ctx, c.opts.ScheduleURL, SeasonFilter(season))
}

// teamStatTypes maps accepted stat_type values to release asset names. "game"
// and "season" are the names older clients send.
var teamStatTypes = map[string]string{
	"week":    "week",
	"game":    "week",
	"reg":     "reg",
	"season":  "reg",
	"post":    "post",
	"regpost": "regpost",
}

// FetchTeamStats returns team stats for a season. statType is "week" (or
// "game") for one row per team-game, "reg" (or "season") for regular season
// totals, "post" or "regpost".
func (c *NflverseClient) FetchTeamStats(ctx context.Context, season int, statType string) (*Table, error) {
	asset, ok := teamStatTypes[statType]
	if !ok {
		return nil, utils.NewValidationError("invalid stat_type", fmt.Sprintf("got %q, expected week, game, reg, season, post or regpost", statType))
	}
	return c.fetchTable(ctx, c.TeamStatsURL(season, asset), nil)
}

// FetchPlayerIDs returns the cross-provider player ID mapping.
func (c *NflverseClient) FetchPlayerIDs(ctx context.Context) (*Table, error) {
	return c.fetchTable(ctx, c.opts.PlayerIDsURL, nil)
}

func (c *NflverseClient) fetchTable(ctx context.Context, url string, keep RowFilter) (*Table, error) {
	if url == "" {
		return nil, utils.NewDataUnavailable("reference data source is not configured", nil)
	}
	c.logger.WithFields(logrus.Fields{
		"component": "nflverse",
		"url":       url,
	}).Info("Fetching reference table")

	body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	table, err := readTable(body, keep)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("reading reference table: %w", ctxErr)
		}
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, utils.NewDataUnavailable("No rows available for selected parameters", nil)
	}
	return table, nil
}

func readTable(r io.Reader, keep RowFilter) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, utils.NewUpstreamFetchError("malformed reference payload", fmt.Errorf("read header: %w", err))
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(cols[i], "\ufeff"))
	}

	table := &Table{Columns: cols}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, utils.NewUpstreamFetchError("malformed reference payload", err)
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col] = field(rec, i)
		}
		if keep != nil && !keep(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
