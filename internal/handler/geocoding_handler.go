package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dealscope/warmap-backend-go/internal/middleware"
	"github.com/dealscope/warmap-backend-go/internal/service"
	"github.com/dealscope/warmap-backend-go/pkg/response"
)

// GeocodingHandler handles HTTP requests for address resolution
type GeocodingHandler struct {
	geocodingService *service.GeocodingService
}

// NewGeocodingHandler creates a new geocoding handler
func NewGeocodingHandler(geocodingService *service.GeocodingService) *GeocodingHandler {
	return &GeocodingHandler{
		geocodingService: geocodingService,
	}
}

// Resolve handles GET /api/v1/geocode?address=
func (h *GeocodingHandler) Resolve(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		response.BadRequest(c, "address query parameter is required")
		return
	}

	point, err := h.geocodingService.Resolve(c.Request.Context(), address)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, point)
}

// StartDrawing handles POST /api/v1/geocode/start-drawing: the new
// development flow, geocoding an address into a boundary drawing session
func (h *GeocodingHandler) StartDrawing(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid geocode payload")
		return
	}

	session, err := h.geocodingService.StartBoundaryDrawing(c.Request.Context(), middleware.UserID(c), req.Address)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, session)
}

// ExistingProperty handles POST /api/v1/geocode/existing-property: geocode
// straight to a Point geometry, no drawing
func (h *GeocodingHandler) ExistingProperty(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid geocode payload")
		return
	}

	result, err := h.geocodingService.ExistingProperty(c.Request.Context(), middleware.UserID(c), req.Address)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
