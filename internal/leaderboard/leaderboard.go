package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stitts-dev/ff-leaderboard/internal/models"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// Entry is one ranked row of a leaderboard.
type Entry struct {
	Rank int `json:"rank"`
	models.ScoredPlayer
}

// Metadata summarises the filtered player set before truncation.
type Metadata struct {
	Season       int     `json:"season"`
	Week         *int    `json:"week"`
	TotalPlayers int     `json:"total_players"`
	TopScore     float64 `json:"top_score"`
	AverageScore float64 `json:"average_score"`
}

// Result is an ordered leaderboard; rank is implied by position.
type Result struct {
	Entries  []Entry  `json:"leaderboard"`
	Metadata Metadata `json:"metadata"`
}

// Query describes the leaderboard a caller wants built from a scored set.
type Query struct {
	Season    int
	Week      *int
	Positions []models.Position
	TopN      int
}

// Build filters players by position, ranks them by fantasy points and keeps
// the first TopN. Metadata reflects the filtered set before truncation.
func Build(players []models.ScoredPlayer, q Query) (*Result, error) {
	if q.TopN <= 0 {
		return nil, utils.NewValidationError("top_n must be a positive integer", fmt.Sprintf("got %d", q.TopN))
	}

	retained := Filter(players, q.Positions)
	Rank(retained)

	result := &Result{
		Entries:  make([]Entry, 0, min(q.TopN, len(retained))),
		Metadata: summarize(retained, q.Season, q.Week),
	}
	for i, p := range retained {
		if i >= q.TopN {
			break
		}
		result.Entries = append(result.Entries, Entry{Rank: i + 1, ScoredPlayer: p})
	}

	return result, nil
}

// Filter returns a new slice holding the players whose position is in
// positions, in input order. An empty filter keeps everyone.
func Filter(players []models.ScoredPlayer, positions []models.Position) []models.ScoredPlayer {
	if len(positions) == 0 {
		out := make([]models.ScoredPlayer, len(players))
		copy(out, players)
		return out
	}

	allowed := make(map[models.Position]struct{}, len(positions))
	for _, p := range positions {
		allowed[p] = struct{}{}
	}

	out := make([]models.ScoredPlayer, 0, len(players))
	for _, p := range players {
		if _, ok := allowed[p.Position]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Rank sorts players in place by fantasy points, highest first. Ties keep
// their input order.
func Rank(players []models.ScoredPlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].FantasyPoints > players[j].FantasyPoints
	})
}

func summarize(players []models.ScoredPlayer, season int, week *int) Metadata {
	meta := Metadata{
		Season:       season,
		Week:         week,
		TotalPlayers: len(players),
	}
	if len(players) == 0 {
		return meta
	}

	var sum float64
	top := players[0].FantasyPoints
	for _, p := range players {
		sum += p.FantasyPoints
		if p.FantasyPoints > top {
			top = p.FantasyPoints
		}
	}
	meta.TopScore = top
	meta.AverageScore = sum / float64(len(players))
	return meta
}

// ParsePositions parses a comma-separated position filter such as "QB,RB".
// Blank input means no filter. Tokens are trimmed but matched case-sensitively
// against the known positions.
func ParsePositions(raw string) ([]models.Position, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	seen := make(map[models.Position]struct{})
	var positions []models.Position
	for _, token := range strings.Split(raw, ",") {
		pos := models.Position(strings.TrimSpace(token))
		if pos == "" {
			return nil, utils.NewValidationError("malformed position list", fmt.Sprintf("empty entry in %q", raw))
		}
		if !pos.IsKnown() {
			return nil, utils.NewValidationError(
				fmt.Sprintf("unknown position %q", pos),
				fmt.Sprintf("expected one of %v", models.KnownPositions),
			)
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	return positions, nil
}
