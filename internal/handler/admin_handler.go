package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/weipengdeng/flowmap/internal/service"
	"github.com/weipengdeng/flowmap/pkg/response"
)

// AdminHandler handles dataset reloads and session resets
type AdminHandler struct {
	datasets *service.DatasetService
	playback *service.PlaybackService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(datasets *service.DatasetService, playback *service.PlaybackService) *AdminHandler {
	return &AdminHandler{datasets: datasets, playback: playback}
}

// Reload handles POST /api/v1/admin/reload
func (h *AdminHandler) Reload(c *gin.Context) {
	loaded, err := h.datasets.Reload(c.Request.Context())
	if err != nil {
		serviceError(c, "Failed to reload dataset", err)
		return
	}
	cleared := h.playback.ResetAll()

	log.Printf("[AdminHandler] %s reloaded dataset, generation %d", c.GetString("subject"), loaded.Generation)
	response.Success(c, gin.H{
		"generation":      loaded.Generation,
		"runId":           loaded.Dataset.Meta.RunID,
		"flowCount":       loaded.Dataset.Meta.FlowCount,
		"sessionsCleared": cleared,
	})
}

// ResetSession handles DELETE /api/v1/admin/sessions/:session
func (h *AdminHandler) ResetSession(c *gin.Context) {
	id := c.Param("session")
	if !h.playback.ResetSession(id) {
		response.NotFound(c, "Session not found")
		return
	}
	response.Success(c, gin.H{"session": id})
}
