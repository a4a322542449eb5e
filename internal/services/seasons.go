package services

import (
	"fmt"

	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// SeasonCatalog knows which seasons and weeks can be requested.
type SeasonCatalog struct {
	first         int
	current       int
	weeksInSeason int
}

func NewSeasonCatalog(first, current, weeksInSeason int) *SeasonCatalog {
	return &SeasonCatalog{
		first:         first,
		current:       current,
		weeksInSeason: weeksInSeason,
	}
}

// Seasons lists every available season in ascending order.
func (c *SeasonCatalog) Seasons() []int {
	if c.current < c.first {
		return []int{}
	}
	seasons := make([]int, 0, c.current-c.first+1)
	for s := c.first; s <= c.current; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}

func (c *SeasonCatalog) Current() int {
	return c.current
}

func (c *SeasonCatalog) WeeksInSeason() int {
	return c.weeksInSeason
}

func (c *SeasonCatalog) Contains(season int) bool {
	return season >= c.first && season <= c.current
}

// CheckSeason returns a DataUnavailable error for seasons outside the catalog.
func (c *SeasonCatalog) CheckSeason(season int) error {
	if !c.Contains(season) {
		return utils.NewAppError(utils.ErrCodeDataUnavailable,
			fmt.Sprintf("no statistics available for season %d", season),
			fmt.Sprintf("available seasons are %d-%d", c.first, c.current),
		)
	}
	return nil
}

// CheckWeek rejects weeks outside 1..WeeksInSeason. A nil week means the whole season.
func (c *SeasonCatalog) CheckWeek(week *int) error {
	if week == nil {
		return nil
	}
	if *week < 1 || *week > c.weeksInSeason {
		return utils.NewValidationError("week out of range", fmt.Sprintf("got %d, expected 1-%d", *week, c.weeksInSeason))
	}
	return nil
}
