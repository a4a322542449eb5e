package models

// Position is a player's roster position as reported by the stat provider.
type Position string

const (
	PositionQB Position = "QB"
	PositionRB Position = "RB"
	PositionFB Position = "FB"
	PositionWR Position = "WR"
	PositionTE Position = "TE"
	PositionK  Position = "K"
)

// KnownPositions lists the positions a leaderboard can be filtered by.
var KnownPositions = []Position{PositionQB, PositionRB, PositionFB, PositionWR, PositionTE, PositionK}

// IsKnown reports whether p is one of KnownPositions. Matching is case-sensitive.
func (p Position) IsKnown() bool {
	for _, known := range KnownPositions {
		if p == known {
			return true
		}
	}
	return false
}

// StatLine holds the raw counting stats a fantasy score is computed from.
type StatLine struct {
	PassYards        float64 `json:"pass_yards"`
	PassTD           float64 `json:"pass_td"`
	PassInt          float64 `json:"pass_int"`
	RushYards        float64 `json:"rush_yards"`
	RushTD           float64 `json:"rush_td"`
	Receptions       float64 `json:"reception"`
	RecYards         float64 `json:"rec_yards"`
	RecTD            float64 `json:"rec_td"`
	FumblesLost      float64 `json:"fumble_lost"`
	TwoPtConversions float64 `json:"two_pt_conversion"`
}

// Add returns the element-wise sum of s and o.
func (s StatLine) Add(o StatLine) StatLine {
	return StatLine{
		PassYards:        s.PassYards + o.PassYards,
		PassTD:           s.PassTD + o.PassTD,
		PassInt:          s.PassInt + o.PassInt,
		RushYards:        s.RushYards + o.RushYards,
		RushTD:           s.RushTD + o.RushTD,
		Receptions:       s.Receptions + o.Receptions,
		RecYards:         s.RecYards + o.RecYards,
		RecTD:            s.RecTD + o.RecTD,
		FumblesLost:      s.FumblesLost + o.FumblesLost,
		TwoPtConversions: s.TwoPtConversions + o.TwoPtConversions,
	}
}

// PlayerStatRow is one player's statistics aggregated over a season, or over
// a single week when one was requested.
type PlayerStatRow struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Position   Position `json:"position"`
	Team       string   `json:"team,omitempty"`
	Games      int      `json:"games"`
	StatLine
}

// ScoredPlayer is a PlayerStatRow with its computed fantasy points.
type ScoredPlayer struct {
	PlayerStatRow
	FantasyPoints float64 `json:"fantasy_points"`
}
