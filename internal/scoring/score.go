package scoring

import (
	"math"

	"github.com/stitts-dev/ff-leaderboard/internal/models"
)

// Score computes a row's fantasy points: the sum over every scored category
// of count × points, rounded to two decimals. Negative totals are valid.
func Score(row models.PlayerStatRow, rules *RuleSet) float64 {
	var total float64
	for _, c := range Categories {
		points, ok := rules.rules[c]
		if !ok {
			continue
		}
		total += c.Value(row.StatLine) * points
	}
	return round2(total)
}

// ScoreAll scores rows in input order.
func ScoreAll(rows []models.PlayerStatRow, rules *RuleSet) []models.ScoredPlayer {
	scored := make([]models.ScoredPlayer, len(rows))
	for i, row := range rows {
		scored[i] = models.ScoredPlayer{
			PlayerStatRow: row,
			FantasyPoints: Score(row, rules),
		}
	}
	return scored
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // normalise -0
	}
	return r
}
