package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/middleware"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/provider"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/push"
)

// Deps 路由依赖；Limiter 为 nil 时不限流
type Deps struct {
	Wireframes   *WireframeHandler
	Hub          *push.Hub
	Limiter      *middleware.RateLimiter
	Registry     *prometheus.Registry
	Orchestrator *provider.Orchestrator
}

func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	if d.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(d.Registry).Middleware())
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    append([]string{middleware.RequestIDHeader}, cfg.CORS.ExposedHeaders...),
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		}
		if d.Hub != nil {
			body["ws_clients"] = d.Hub.Count()
		}
		if d.Orchestrator != nil {
			body["providers"] = d.Orchestrator.Status()
		}
		c.JSON(http.StatusOK, body)
	})
	if d.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}
	if d.Hub != nil {
		router.GET("/ws", func(c *gin.Context) { d.Hub.ServeWS(c.Writer, c.Request) })
	}

	api := router.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware())
	}
	{
		wf := api.Group("/wireframe")
		{
			wf.POST("/generate", d.Wireframes.Generate)
			wf.POST("/stream", d.Wireframes.Stream)
			wf.POST("/modify", d.Wireframes.Modify)
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("", d.Wireframes.ListSessions)
			sessions.GET("/:id", d.Wireframes.GetSession)
			sessions.GET("/:id/messages", d.Wireframes.GetMessages)
			sessions.DELETE("/:id", d.Wireframes.DeleteSession)
		}
	}

	return router
}
