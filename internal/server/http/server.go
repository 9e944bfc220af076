package http

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	router *gin.Engine
	once   sync.Once
)

// StatsFunc supplies the worker's load/shard counters for the diagnostics
// endpoint.
type StatsFunc func() map[string]interface{}

// Init builds the diagnostics router: liveness plus the accepted/offered and
// class-balance counters a systematically bad input shows up in first.
func Init(stats StatsFunc) {
	once.Do(func() {
		env := viper.GetString("APP_ENV")
		if env == "prod" || env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		router = gin.New()

		router.Use(gin.Recovery())
		router.Use(gin.Logger())

		router.GET("/health/self", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "true"})
		})

		router.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, stats())
		})
	})
}

// Serve starts the diagnostics server in the background; the worker loop
// never depends on it.
func Serve(port int) {
	if router == nil {
		log.Fatal().Msg("Router not initialized")
	}
	go func() {
		if err := router.Run(":" + strconv.Itoa(port)); err != nil {
			log.Error().Err(err).Msg("Diagnostics server stopped")
		}
	}()
}

// Instance returns the router, mainly for tests.
func Instance() *gin.Engine {
	if router == nil {
		log.Fatal().Msg("Router not initialized")
	}
	return router
}
