package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/service"
	"github.com/dealscope/warmap-backend-go/pkg/response"
)

// LayerHandler handles HTTP requests for map layers
type LayerHandler struct {
	layerService *service.LayerService
}

// NewLayerHandler creates a new layer handler
func NewLayerHandler(layerService *service.LayerService) *LayerHandler {
	return &LayerHandler{
		layerService: layerService,
	}
}

// ListLayers handles GET /api/v1/maps/:mapID/layers
func (h *LayerHandler) ListLayers(c *gin.Context) {
	layers, err := h.layerService.ListLayers(c.Param("mapID"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, layers)
}

// CreateLayer handles POST /api/v1/maps/:mapID/layers. The drag-and-drop
// payload from the sidebar uses the same body.
func (h *LayerHandler) CreateLayer(c *gin.Context) {
	var req models.CreateLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid layer payload")
		return
	}

	layer, err := h.layerService.CreateLayer(c.Param("mapID"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, layer)
}

// ToggleVisibility handles PATCH /api/v1/layers/:id/visibility
func (h *LayerHandler) ToggleVisibility(c *gin.Context) {
	layer, err := h.layerService.ToggleVisibility(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, layer)
}

// UpdateOpacity handles PATCH /api/v1/layers/:id/opacity
func (h *LayerHandler) UpdateOpacity(c *gin.Context) {
	var req struct {
		Opacity *float64 `json:"opacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid opacity payload")
		return
	}

	layer, err := h.layerService.UpdateOpacity(c.Param("id"), *req.Opacity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, layer)
}

// Reorder handles PUT /api/v1/maps/:mapID/layers/order
func (h *LayerHandler) Reorder(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid order payload")
		return
	}

	layers, err := h.layerService.Reorder(c.Param("mapID"), req.IDs)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, layers)
}

// DeleteLayer handles DELETE /api/v1/layers/:id
func (h *LayerHandler) DeleteLayer(c *gin.Context) {
	if err := h.layerService.DeleteLayer(c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, nil)
}

// Render handles GET /api/v1/maps/:mapID/render
func (h *LayerHandler) Render(c *gin.Context) {
	primitives, err := h.layerService.Render(c.Param("mapID"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"primitives": primitives,
		"count":      len(primitives),
	})
}

// SourcePoints handles GET /api/v1/maps/:mapID/sources/:sourceType/points
func (h *LayerHandler) SourcePoints(c *gin.Context) {
	points, err := h.layerService.SourcePoints(c.Param("sourceType"), c.Param("mapID"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"points": points,
		"count":  len(points),
	})
}
