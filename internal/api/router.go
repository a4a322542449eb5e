package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/ff-leaderboard/internal/api/handlers"
	"github.com/stitts-dev/ff-leaderboard/internal/api/middleware"
	"github.com/stitts-dev/ff-leaderboard/internal/services"
	"github.com/stitts-dev/ff-leaderboard/pkg/config"
)

// Dependencies are the long-lived objects the handlers share. Cache is nil
// when no redis is configured.
type Dependencies struct {
	Config   *config.Config
	Stats    *services.StatsService
	Breakers *services.CircuitBreakerService
	Cache    handlers.Pinger
	Logger   *logrus.Logger
}

// NewRouter builds the gin engine with middleware, the /api routes and the
// JSON 404 handler.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORS(deps.Config.CorsOrigins))

	SetupRoutes(router.Group("/api"), deps)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return router
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps Dependencies) {
	cfg := deps.Config

	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Stats, cfg.DefaultTopN, cfg.MaxTopN, deps.Logger)
	exportHandler := handlers.NewExportHandler(deps.Stats, deps.Logger)
	referenceHandler := handlers.NewReferenceHandler(deps.Stats)
	metaHandler := handlers.NewMetaHandler(deps.Stats, deps.Breakers, deps.Cache, handlers.ProviderInfo{
		Name:          "nflverse",
		BaseURL:       cfg.StatsBaseURL,
		SeasonTypes:   cfg.SeasonTypes,
		ScoringFormat: strings.ToLower(cfg.ScoringFormat),
	}, deps.Logger)

	// Leaderboard endpoints
	group.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	group.GET("/stats/:season/:week", leaderboardHandler.GetPlayerStats)
	group.GET("/download-csv", exportHandler.DownloadCSV)

	// Reference data endpoints
	group.GET("/schedule", referenceHandler.GetSchedule)
	group.GET("/team-stats", referenceHandler.GetTeamStats)
	group.GET("/player-ids", referenceHandler.GetPlayerIDs)

	// Metadata endpoints
	group.GET("/seasons", metaHandler.GetSeasons)
	group.GET("/scoring", metaHandler.GetScoring)
	group.GET("/health", metaHandler.GetHealth)
}
