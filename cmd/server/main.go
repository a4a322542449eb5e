package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/api"
	"github.com/stitts-dev/ff-leaderboard/internal/providers"
	"github.com/stitts-dev/ff-leaderboard/internal/scoring"
	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/config"
	"github.com/stitts-dev/ff-leaderboard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment() && cfg.LogFormat != "json")
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rules, err := scoring.Preset(strings.ToLower(cfg.ScoringFormat))
	if err != nil {
		log.Fatalf("Invalid scoring configuration: %v", err)
	}

	// Stat provider
	nflverse := providers.NewNflverseClient(providers.NflverseOptions{
		BaseURL:      cfg.StatsBaseURL,
		ScheduleURL:  cfg.ScheduleURL,
		PlayerIDsURL: cfg.PlayerIDsURL,
		SeasonTypes:  cfg.SeasonTypes,
		Timeout:      cfg.ExternalAPITimeout,
		RateLimit:    cfg.UpstreamRateLimit,
	}, log)

	breakers := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout, log)

	// Optional Redis cache
	var cacheService *services.CacheService
	if cfg.CacheEnabled() {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis not reachable at startup, requests will bypass the cache until it is")
		}
		cancel()
		cacheService = services.NewCacheService(redisClient)
	}

	statsOpts := services.StatsServiceOptions{
		Source:    nflverse,
		Reference: nflverse,
		Breaker:   breakers,
		Rules:     rules,
		Seasons:   services.NewSeasonCatalog(cfg.FirstSeason, cfg.CurrentSeason, cfg.WeeksInSeason),
		CacheTTL:  cfg.CacheTTL,
	}
	deps := api.Dependencies{
		Config:   cfg,
		Breakers: breakers,
		Logger:   log,
	}
	// Leave the interfaces nil rather than holding a nil *CacheService.
	if cacheService != nil {
		statsOpts.Cache = cacheService
		deps.Cache = cacheService
	}
	deps.Stats = services.NewStatsService(statsOpts, log)

	if cfg.EnableCacheWarmer {
		warmer := services.NewCacheWarmer(deps.Stats, cfg.CurrentSeason, cfg.CacheWarmSchedule, cfg.ExternalAPITimeout*2, log)
		if err := warmer.Start(); err != nil {
			log.Errorf("Failed to start cache warmer: %v", err)
		}
		defer warmer.Stop()
	}

	router := api.NewRouter(deps)

	log.WithFields(logrus.Fields{
		"current_season": cfg.CurrentSeason,
		"scoring_system": rules.Name(),
		"cache_enabled":  cfg.CacheEnabled(),
		"routes":         len(router.Routes()),
	}).Info("Leaderboard service configured")

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ExternalAPITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
