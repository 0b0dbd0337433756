package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/config"
	"github.com/jengzang/moodtrail-backend-go/internal/handler"
	"github.com/jengzang/moodtrail-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Runs    *handler.AnalysisRunHandler
	Results *handler.ResultHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Moodtrail API is running",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		analyses := api.Group("/analyses")
		{
			analyses.POST("", h.Runs.CreateRun)
			analyses.GET("", h.Runs.ListRuns)
			analyses.GET("/:id", h.Runs.GetRun)
			analyses.POST("/:id/rerun", h.Runs.RerunAnalysis)
			analyses.GET("/:id/days", h.Runs.GetDays)
		}

		messages := api.Group("/messages")
		{
			messages.GET("/happiest", h.Results.HappiestMessages)
			messages.GET("/saddest", h.Results.SaddestMessages)
		}

		places := api.Group("/places")
		{
			places.GET("/most-visited", h.Results.MostVisitedPlaces)
			places.GET("/longest-stays", h.Results.LongestStays)
		}

		api.GET("/correlations/:dimension", h.Results.Correlations)
	}

	return r
}
