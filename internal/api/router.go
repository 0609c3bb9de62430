package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealscope/warmap-backend-go/internal/config"
	"github.com/dealscope/warmap-backend-go/internal/handler"
	"github.com/dealscope/warmap-backend-go/internal/middleware"
)

// Handlers bundles the route handlers for SetupRouter
type Handlers struct {
	Layer         *handler.LayerHandler
	Configuration *handler.ConfigurationHandler
	Drawing       *handler.DrawingHandler
	Geocoding     *handler.GeocodingHandler
}

// SetupRouter wires middleware and routes
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "War Map API is running",
		})
	})

	// API routes
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret, cfg.DevAuth))
	{
		// Layer CRUD and rendering
		maps := api.Group("/maps/:mapID")
		{
			maps.GET("/layers", h.Layer.ListLayers)
			maps.POST("/layers", h.Layer.CreateLayer)
			maps.PUT("/layers/order", h.Layer.Reorder)
			maps.GET("/render", h.Layer.Render)
			maps.GET("/sources/:sourceType/points", h.Layer.SourcePoints)
		}

		layers := api.Group("/layers")
		{
			layers.PATCH("/:id/visibility", h.Layer.ToggleVisibility)
			layers.PATCH("/:id/opacity", h.Layer.UpdateOpacity)
			layers.DELETE("/:id", h.Layer.DeleteLayer)
		}

		// War map configurations
		configs := api.Group("/configurations")
		{
			configs.POST("", h.Configuration.Create)
			configs.GET("", h.Configuration.List)
			configs.GET("/default", h.Configuration.GetDefault)
			configs.GET("/:id", h.Configuration.Get)
			configs.PUT("/:id", h.Configuration.Update)
			configs.DELETE("/:id", h.Configuration.Delete)
			configs.POST("/:id/clone", h.Configuration.Clone)
			configs.POST("/:id/default", h.Configuration.SetDefault)
			configs.POST("/:id/select", h.Configuration.Select)
		}

		// Boundary / trade-area capture
		drawing := api.Group("/drawing")
		{
			drawing.POST("/start", h.Drawing.Start)
			drawing.POST("/points", h.Drawing.AddPoint)
			drawing.POST("/finish", h.Drawing.Finish)
			drawing.POST("/cancel", h.Drawing.Cancel)
			drawing.GET("/session", h.Drawing.Session)
		}

		// Geocoding, rate limited to protect the Maps API quota
		geocode := api.Group("/geocode")
		geocode.Use(middleware.RateLimit(cfg.GeocodeRPM, time.Minute))
		{
			geocode.GET("", h.Geocoding.Resolve)
			geocode.POST("/start-drawing", h.Geocoding.StartDrawing)
			geocode.POST("/existing-property", h.Geocoding.ExistingProperty)
		}
	}

	return r
}
