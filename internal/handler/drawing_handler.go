package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dealscope/warmap-backend-go/internal/middleware"
	"github.com/dealscope/warmap-backend-go/internal/models"
	"github.com/dealscope/warmap-backend-go/internal/service"
	"github.com/dealscope/warmap-backend-go/pkg/response"
)

// DrawingHandler handles HTTP requests for boundary/trade-area capture
type DrawingHandler struct {
	drawingService *service.DrawingService
}

// NewDrawingHandler creates a new drawing handler
func NewDrawingHandler(drawingService *service.DrawingService) *DrawingHandler {
	return &DrawingHandler{
		drawingService: drawingService,
	}
}

// Start handles POST /api/v1/drawing/start
func (h *DrawingHandler) Start(c *gin.Context) {
	var req struct {
		Mode   string         `json:"mode" binding:"required"`
		Center *models.LngLat `json:"center"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid drawing payload")
		return
	}

	session, err := h.drawingService.StartSession(middleware.UserID(c), req.Mode, req.Center)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, session)
}

// AddPoint handles POST /api/v1/drawing/points
func (h *DrawingHandler) AddPoint(c *gin.Context) {
	var req models.LngLat
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid point payload")
		return
	}

	session, err := h.drawingService.AddPoint(middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, session)
}

// Finish handles POST /api/v1/drawing/finish
func (h *DrawingHandler) Finish(c *gin.Context) {
	result, err := h.drawingService.Finish(middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel handles POST /api/v1/drawing/cancel
func (h *DrawingHandler) Cancel(c *gin.Context) {
	if err := h.drawingService.Cancel(middleware.UserID(c)); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, nil)
}

// Session handles GET /api/v1/drawing/session
func (h *DrawingHandler) Session(c *gin.Context) {
	session := h.drawingService.Session(middleware.UserID(c))
	if session == nil {
		response.Success(c, gin.H{"state": "idle"})
		return
	}

	response.Success(c, gin.H{
		"state":   "drawing",
		"session": session,
	})
}
