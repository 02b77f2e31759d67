package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/service"
	"github.com/weipengdeng/flowmap/pkg/response"
)

// PlaybackHandler handles HTTP requests for interpolated playback frames
type PlaybackHandler struct {
	service *service.PlaybackService
}

// NewPlaybackHandler creates a new playback handler
func NewPlaybackHandler(service *service.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{service: service}
}

// GetPlayback handles GET /api/v1/playback
func (h *PlaybackHandler) GetPlayback(c *gin.Context) {
	var filter models.PlaybackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if math.IsNaN(filter.Hour) || math.IsInf(filter.Hour, 0) {
		response.BadRequest(c, "hour must be finite")
		return
	}
	if filter.Limit < 0 {
		response.BadRequest(c, "limit must not be negative")
		return
	}

	frame, err := h.service.Frame(filter)
	if err != nil {
		serviceError(c, "Failed to build playback frame", err)
		return
	}
	response.Success(c, frame)
}
