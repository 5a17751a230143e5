package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/handler"
	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Place    *handler.PlaceHandler
	Goal     *handler.GoalHandler
	Tracking *handler.TrackingHandler
	Progress *handler.ProgressHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", middleware.Auth(authService), h.Auth.Logout)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	protected.GET("/places", h.Place.List)
	protected.POST("/places", h.Place.Create)
	protected.PUT("/places/:id", h.Place.Update)
	protected.DELETE("/places/:id", h.Place.Delete)

	protected.GET("/goals", h.Goal.List)
	protected.PUT("/goals/:category", h.Goal.Set)
	protected.DELETE("/goals/:category", h.Goal.Remove)
	protected.POST("/weeks/check", h.Goal.CheckWeek)

	protected.POST("/tracking/start", h.Tracking.Start)
	protected.POST("/tracking/stop", h.Tracking.Stop)
	protected.GET("/tracking/status", h.Tracking.Status)
	protected.PUT("/location/permission", h.Tracking.SetPermission)
	protected.POST("/location/fixes", h.Tracking.PublishFix)
	protected.GET("/sessions", h.Tracking.Sessions)

	protected.GET("/progress/current", h.Progress.Current)
	protected.GET("/progress/weekly", h.Progress.Weekly)
	protected.GET("/progress/history", h.Progress.History)
	protected.GET("/progress/completions", h.Progress.Completions)
	protected.DELETE("/progress", h.Progress.Reset)
	protected.GET("/streaks", h.Progress.Streaks)

	return engine
}
