package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dealscope/warmap-backend-go/internal/middleware"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/service"
	"github.com/dealscope/warmap-backend-go/pkg/response"
)

// ConfigurationHandler handles HTTP requests for map configurations
type ConfigurationHandler struct {
	configService *service.ConfigurationService
}

// NewConfigurationHandler creates a new configuration handler
func NewConfigurationHandler(configService *service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{
		configService: configService,
	}
}

// Create handles POST /api/v1/configurations
func (h *ConfigurationHandler) Create(c *gin.Context) {
	var req models.CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid configuration payload")
		return
	}

	cfg, err := h.configService.Create(middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, cfg)
}

// List handles GET /api/v1/configurations?type=
func (h *ConfigurationHandler) List(c *gin.Context) {
	configs, err := h.configService.List(middleware.UserID(c), c.Query("type"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, configs)
}

// GetDefault handles GET /api/v1/configurations/default
func (h *ConfigurationHandler) GetDefault(c *gin.Context) {
	cfg, err := h.configService.GetDefault(middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if cfg == nil {
		response.NotFound(c, "No default configuration set")
		return
	}

	response.Success(c, cfg)
}

// Get handles GET /api/v1/configurations/:id
func (h *ConfigurationHandler) Get(c *gin.Context) {
	cfg, err := h.configService.Get(middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, cfg)
}

// Update handles PUT /api/v1/configurations/:id
func (h *ConfigurationHandler) Update(c *gin.Context) {
	var req models.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid configuration payload")
		return
	}

	cfg, err := h.configService.Update(middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, cfg)
}

// Clone handles POST /api/v1/configurations/:id/clone
func (h *ConfigurationHandler) Clone(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// Body is optional; an empty name falls back to "<original> (copy)"
	_ = c.ShouldBindJSON(&req)

	cfg, err := h.configService.Clone(middleware.UserID(c), c.Param("id"), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, cfg)
}

// SetDefault handles POST /api/v1/configurations/:id/default
func (h *ConfigurationHandler) SetDefault(c *gin.Context) {
	if err := h.configService.SetDefault(middleware.UserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, nil)
}

// Delete handles DELETE /api/v1/configurations/:id
func (h *ConfigurationHandler) Delete(c *gin.Context) {
	if err := h.configService.Delete(middleware.UserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, nil)
}

// Select handles POST /api/v1/configurations/:id/select?map_id=
func (h *ConfigurationHandler) Select(c *gin.Context) {
	mapID := c.Query("map_id")
	if mapID == "" {
		response.BadRequest(c, "map_id query parameter is required")
		return
	}

	layers, err := h.configService.Select(middleware.UserID(c), c.Param("id"), mapID)
	if err != nil {
		if layers == nil {
			response.FromError(c, err)
			return
		}
		// Best-effort materialization: layers created before the failure
		// are live, so return them alongside the error message
		c.JSON(200, response.Response{
			Code:    1,
			Message: err.Error(),
			Data:    layers,
		})
		return
	}

	response.Success(c, layers)
}
