package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/leaderboard"
	"github.com/stitts-dev/ff-leaderboard/internal/models"
	"github.com/stitts-dev/ff-leaderboard/internal/providers"
	"github.com/stitts-dev/ff-leaderboard/internal/scoring"
	"github.com/stitts-dev/ff-leaderboard/pkg/logger"
	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// ReferenceSource serves the raw nflverse tables exposed next to the leaderboard.
type ReferenceSource interface {
	FetchSchedule(ctx context.Context, season int) (*providers.Table, error)
	FetchTeamStats(ctx context.Context, season int, statType string) (*providers.Table, error)
	FetchPlayerIDs(ctx context.Context) (*providers.Table, error)
}

// LeaderboardQuery is a leaderboard request after HTTP parsing.
type LeaderboardQuery struct {
	Season    int
	Week      *int
	Positions []models.Position
	TopN      int
}

// StatsService runs fetch, score and rank for one scoring rule set.
type StatsService struct {
	source    providers.StatSource
	reference ReferenceSource
	cache     StatsCache
	breaker   *CircuitBreakerService
	rules     *scoring.RuleSet
	seasons   *SeasonCatalog
	cacheTTL  time.Duration
	logger    *logrus.Logger
}

// StatsServiceOptions collects StatsService dependencies. Cache and
// Reference may be nil.
type StatsServiceOptions struct {
	Source    providers.StatSource
	Reference ReferenceSource
	Cache     StatsCache
	Breaker   *CircuitBreakerService
	Rules     *scoring.RuleSet
	Seasons   *SeasonCatalog
	CacheTTL  time.Duration
}

func NewStatsService(opts StatsServiceOptions, logger *logrus.Logger) *StatsService {
	return &StatsService{
		source:    opts.Source,
		reference: opts.Reference,
		cache:     opts.Cache,
		breaker:   opts.Breaker,
		rules:     opts.Rules,
		seasons:   opts.Seasons,
		cacheTTL:  opts.CacheTTL,
		logger:    logger,
	}
}

func (s *StatsService) Rules() *scoring.RuleSet {
	return s.rules
}

func (s *StatsService) Seasons() *SeasonCatalog {
	return s.seasons
}

// PlayerStats returns aggregated stat rows, from the cache when possible.
func (s *StatsService) PlayerStats(ctx context.Context, season int, week *int) ([]models.PlayerStatRow, error) {
	if err := s.seasons.CheckSeason(season); err != nil {
		return nil, err
	}
	if err := s.seasons.CheckWeek(week); err != nil {
		return nil, err
	}

	key := StatsCacheKey(season, week)
	if s.cache != nil {
		var cached []models.PlayerStatRow
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.logger.WithFields(logrus.Fields{"component": "stats_service", "key": key}).Debug("Cache hit")
			return cached, nil
		case !errors.Is(err, ErrCacheMiss):
			s.logger.WithError(err).WithField("key", key).Warn("Cache read failed, fetching from provider")
		}
	}

	rows, err := s.fetch(ctx, season, week)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, rows)
	return rows, nil
}

// ScoredPlayers returns every player for the period with fantasy points, in
// provider order.
func (s *StatsService) ScoredPlayers(ctx context.Context, season int, week *int) ([]models.ScoredPlayer, error) {
	rows, err := s.PlayerStats(ctx, season, week)
	if err != nil {
		return nil, err
	}
	return scoring.ScoreAll(rows, s.rules), nil
}

// RankedPlayers returns every scored player sorted by points, highest first.
func (s *StatsService) RankedPlayers(ctx context.Context, season int, week *int) ([]leaderboard.Entry, error) {
	players, err := s.ScoredPlayers(ctx, season, week)
	if err != nil {
		return nil, err
	}
	leaderboard.Rank(players)

	entries := make([]leaderboard.Entry, len(players))
	for i, p := range players {
		entries[i] = leaderboard.Entry{Rank: i + 1, ScoredPlayer: p}
	}
	return entries, nil
}

func (s *StatsService) Leaderboard(ctx context.Context, q LeaderboardQuery) (*leaderboard.Result, error) {
	if q.TopN <= 0 {
		return nil, utils.NewValidationError("top_n must be a positive integer")
	}

	players, err := s.ScoredPlayers(ctx, q.Season, q.Week)
	if err != nil {
		return nil, err
	}

	result, err := leaderboard.Build(players, leaderboard.Query{
		Season:    q.Season,
		Week:      q.Week,
		Positions: q.Positions,
		TopN:      q.TopN,
	})
	if err != nil {
		return nil, err
	}

	logger.WithSeasonContext(s.logger, q.Season, q.Week).WithFields(logrus.Fields{
		"component":     "stats_service",
		"positions":     q.Positions,
		"total_players": result.Metadata.TotalPlayers,
		"returned":      len(result.Entries),
	}).Info("Leaderboard built")

	return result, nil
}

// Refresh fetches a period from the provider and overwrites its cache entry.
func (s *StatsService) Refresh(ctx context.Context, season int, week *int) (int, error) {
	rows, err := s.fetch(ctx, season, week)
	if err != nil {
		return 0, err
	}
	s.store(ctx, StatsCacheKey(season, week), rows)
	return len(rows), nil
}

func (s *StatsService) Schedule(ctx context.Context, season int) (*providers.Table, error) {
	if err := s.seasons.CheckSeason(season); err != nil {
		return nil, err
	}
	return s.referenceTable(func() (*providers.Table, error) {
		return s.reference.FetchSchedule(ctx, season)
	})
}

func (s *StatsService) TeamStats(ctx context.Context, season int, statType string) (*providers.Table, error) {
	if err := s.seasons.CheckSeason(season); err != nil {
		return nil, err
	}
	return s.referenceTable(func() (*providers.Table, error) {
		return s.reference.FetchTeamStats(ctx, season, statType)
	})
}

func (s *StatsService) PlayerIDs(ctx context.Context) (*providers.Table, error) {
	return s.referenceTable(func() (*providers.Table, error) {
		return s.reference.FetchPlayerIDs(ctx)
	})
}

func (s *StatsService) fetch(ctx context.Context, season int, week *int) ([]models.PlayerStatRow, error) {
	result, err := s.breaker.Execute(BreakerStats, func() (interface{}, error) {
		return s.source.FetchPlayerStats(ctx, season, week)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.PlayerStatRow), nil
}

func (s *StatsService) store(ctx context.Context, key string, rows []models.PlayerStatRow) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (s *StatsService) referenceTable(fn func() (*providers.Table, error)) (*providers.Table, error) {
	if s.reference == nil {
		return nil, utils.NewDataUnavailable("reference data is not configured", nil)
	}
	result, err := s.breaker.Execute(BreakerReference, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return result.(*providers.Table), nil
}
