package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/stitts-dev/ff-leaderboard/internal/models"
)

// Category is a statistical category that can carry a point value.
type Category string

const (
	PassYards       Category = "pass_yards"
	PassTD          Category = "pass_td"
	PassInt         Category = "pass_int"
	RushYards       Category = "rush_yards"
	RushTD          Category = "rush_td"
	Reception       Category = "reception"
	RecYards        Category = "rec_yards"
	RecTD           Category = "rec_td"
	FumbleLost      Category = "fumble_lost"
	TwoPtConversion Category = "two_pt_conversion"
)

// Categories is the canonical category order. Scores are summed in this
// order so that a given row always produces the same float.
var Categories = []Category{
	PassYards, PassTD, PassInt,
	RushYards, RushTD,
	Reception, RecYards, RecTD,
	FumbleLost, TwoPtConversion,
}

func (c Category) valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Value reads the category's raw count from a stat line.
func (c Category) Value(s models.StatLine) float64 {
	switch c {
	case PassYards:
		return s.PassYards
	case PassTD:
		return s.PassTD
	case PassInt:
		return s.PassInt
	case RushYards:
		return s.RushYards
	case RushTD:
		return s.RushTD
	case Reception:
		return s.Receptions
	case RecYards:
		return s.RecYards
	case RecTD:
		return s.RecTD
	case FumbleLost:
		return s.FumblesLost
	case TwoPtConversion:
		return s.TwoPtConversions
	default:
		return 0
	}
}

// RuleSet maps categories to points per unit. It is immutable once built;
// categories without a rule score zero.
type RuleSet struct {
	name  string
	rules map[Category]float64
}

// NewRuleSet validates rules and returns a RuleSet holding its own copy of them.
func NewRuleSet(name string, rules map[Category]float64) (*RuleSet, error) {
	if name == "" {
		return nil, fmt.Errorf("rule set name is required")
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule set %q has no rules", name)
	}

	copied := make(map[Category]float64, len(rules))
	for category, points := range rules {
		if !category.valid() {
			return nil, fmt.Errorf("rule set %q: unknown category %q", name, category)
		}
		if math.IsNaN(points) || math.IsInf(points, 0) {
			return nil, fmt.Errorf("rule set %q: category %q has non-finite value %v", name, category, points)
		}
		copied[category] = points
	}

	return &RuleSet{name: name, rules: copied}, nil
}

// Name is the display name of the scoring system.
func (r *RuleSet) Name() string {
	return r.name
}

// Points returns the value of one unit of category, zero if unscored.
func (r *RuleSet) Points(category Category) float64 {
	return r.rules[category]
}

// Rules returns a copy of the table keyed by category name.
func (r *RuleSet) Rules() map[string]float64 {
	out := make(map[string]float64, len(r.rules))
	for category, points := range r.rules {
		out[string(category)] = points
	}
	return out
}

// ScoredCategories lists the categories carrying a rule, in canonical order.
func (r *RuleSet) ScoredCategories() []Category {
	out := make([]Category, 0, len(r.rules))
	for _, c := range Categories {
		if _, ok := r.rules[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

const (
	FormatPPR      = "ppr"
	FormatHalfPPR  = "half_ppr"
	FormatStandard = "standard"
)

var presetNames = map[string]string{
	FormatPPR:      "PPR (Points Per Reception)",
	FormatHalfPPR:  "Half PPR (0.5 Points Per Reception)",
	FormatStandard: "Standard (No Points Per Reception)",
}

func baseRules(perReception float64) map[Category]float64 {
	return map[Category]float64{
		PassTD:          6,
		PassInt:         -2,
		PassYards:       0.04, // 1 point per 25 yards
		RushTD:          6,
		RushYards:       0.1, // 1 point per 10 yards
		RecTD:           6,
		RecYards:        0.1,
		Reception:       perReception,
		FumbleLost:      -2,
		TwoPtConversion: 2,
	}
}

// Preset builds one of the site-wide scoring formats.
func Preset(format string) (*RuleSet, error) {
	name, ok := presetNames[format]
	if !ok {
		return nil, fmt.Errorf("unknown scoring format %q (available: %v)", format, PresetFormats())
	}

	var perReception float64
	switch format {
	case FormatPPR:
		perReception = 1
	case FormatHalfPPR:
		perReception = 0.5
	}
	return NewRuleSet(name, baseRules(perReception))
}

// PresetFormats lists the accepted SCORING_FORMAT values.
func PresetFormats() []string {
	out := make([]string, 0, len(presetNames))
	for f := range presetNames {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
