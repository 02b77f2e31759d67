package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weipengdeng/flowmap/internal/config"
	"github.com/weipengdeng/flowmap/internal/handler"
	"github.com/weipengdeng/flowmap/internal/middleware"
	"github.com/weipengdeng/flowmap/internal/service"
)

// Services groups the dependencies served by the router
type Services struct {
	Datasets *service.DatasetService
	Playback *service.PlaybackService
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		var generation uint64
		if l, err := svc.Datasets.Current(); err == nil {
			generation = l.Generation
		} else {
			status = "no dataset"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     status,
			"message":    "Flow map API is running",
			"generation": generation,
			"sessions":   svc.Playback.SessionCount(),
		})
	})

	datasets := handler.NewDatasetHandler(svc.Datasets)
	playback := handler.NewPlaybackHandler(svc.Playback)
	admin := handler.NewAdminHandler(svc.Datasets, svc.Playback)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
	{
		api.GET("/meta", datasets.GetMeta)
		api.GET("/summary", datasets.GetSummary)
		api.GET("/nodes", datasets.GetNodes)
		api.GET("/destinations", datasets.GetDestinations)
		api.GET("/flows", datasets.GetFlows)
		api.GET("/flows/:o/:d", datasets.GetFlow)
		api.GET("/frames/:hour", datasets.GetFrame)
		api.GET("/playback", playback.GetPlayback)

		// 管理接口，未配置 JWT_SECRET 时不注册
		if cfg.JWTSecret != "" {
			adminGroup := api.Group("/admin")
			adminGroup.Use(middleware.Auth(cfg.JWTSecret))
			{
				adminGroup.POST("/reload", admin.Reload)
				adminGroup.DELETE("/sessions/:session", admin.ResetSession)
			}
		} else {
			log.Printf("[Router] JWT_SECRET not set, admin routes disabled")
		}
	}

	return r
}
