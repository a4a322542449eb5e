package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Seasons
	CurrentSeason int `mapstructure:"CURRENT_SEASON"`
	FirstSeason   int `mapstructure:"FIRST_SEASON"`
	WeeksInSeason int `mapstructure:"WEEKS_IN_SEASON"`

	// Leaderboard
	DefaultTopN   int    `mapstructure:"DEFAULT_TOP_N"`
	MaxTopN       int    `mapstructure:"MAX_TOP_N"`
	ScoringFormat string `mapstructure:"SCORING_FORMAT"`

	// Stat provider (nflverse)
	StatsBaseURL            string        `mapstructure:"STATS_BASE_URL"`
	ScheduleURL             string        `mapstructure:"SCHEDULE_URL"`
	PlayerIDsURL            string        `mapstructure:"PLAYER_IDS_URL"`
	SeasonTypes             []string      `mapstructure:"SEASON_TYPES"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	UpstreamRateLimit       float64       `mapstructure:"UPSTREAM_RATE_LIMIT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
	CircuitBreakerTimeout   time.Duration `mapstructure:"CIRCUIT_BREAKER_TIMEOUT"`

	// Cache (optional)
	RedisURL          string        `mapstructure:"REDIS_URL"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	EnableCacheWarmer bool          `mapstructure:"ENABLE_CACHE_WARMER"`
	CacheWarmSchedule string        `mapstructure:"CACHE_WARM_SCHEDULE"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)

	// Read from environment
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Comma-separated lists
	config.CorsOrigins = splitList(v.GetString("CORS_ORIGINS"))
	config.SeasonTypes = splitList(v.GetString("SEASON_TYPES"))

	if config.CurrentSeason == 0 {
		config.CurrentSeason = SeasonForDate(time.Now())
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("CURRENT_SEASON", 0) // derived from the clock
	v.SetDefault("FIRST_SEASON", 1999)
	v.SetDefault("WEEKS_IN_SEASON", 18)

	v.SetDefault("DEFAULT_TOP_N", 25)
	v.SetDefault("MAX_TOP_N", 500)
	v.SetDefault("SCORING_FORMAT", "ppr")

	v.SetDefault("STATS_BASE_URL", "https://github.com/nflverse/nflverse-data/releases/download")
	v.SetDefault("SCHEDULE_URL", "https://github.com/nflverse/nfldata/raw/master/data/games.csv")
	v.SetDefault("PLAYER_IDS_URL", "https://github.com/dynastyprocess/data/raw/master/files/db_playerids.csv")
	v.SetDefault("SEASON_TYPES", "REG,POST")
	v.SetDefault("EXTERNAL_API_TIMEOUT", "30s")
	v.SetDefault("UPSTREAM_RATE_LIMIT", 2)
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	v.SetDefault("CIRCUIT_BREAKER_TIMEOUT", "60s")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("ENABLE_CACHE_WARMER", false)
	v.SetDefault("CACHE_WARM_SCHEDULE", "@every 6h")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.FirstSeason <= 0 || c.CurrentSeason < c.FirstSeason {
		return fmt.Errorf("invalid season range: FIRST_SEASON=%d CURRENT_SEASON=%d", c.FirstSeason, c.CurrentSeason)
	}
	if c.WeeksInSeason <= 0 {
		return fmt.Errorf("WEEKS_IN_SEASON must be positive, got %d", c.WeeksInSeason)
	}
	if c.DefaultTopN <= 0 || c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("invalid top-N limits: DEFAULT_TOP_N=%d MAX_TOP_N=%d", c.DefaultTopN, c.MaxTopN)
	}
	if c.StatsBaseURL == "" {
		return fmt.Errorf("STATS_BASE_URL is required")
	}
	if c.UpstreamRateLimit <= 0 {
		return fmt.Errorf("UPSTREAM_RATE_LIMIT must be positive, got %v", c.UpstreamRateLimit)
	}
	if c.EnableCacheWarmer && c.RedisURL == "" {
		return fmt.Errorf("ENABLE_CACHE_WARMER requires REDIS_URL")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CacheEnabled reports whether a redis cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// SeasonForDate returns the NFL season in progress on t. Seasons kick off in
// September, so January through August still belong to the previous year.
func SeasonForDate(t time.Time) int {
	if t.Month() < time.September {
		return t.Year() - 1
	}
	return t.Year()
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
