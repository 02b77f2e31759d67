package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/service"
	"github.com/weipengdeng/flowmap/pkg/response"
)

// DatasetHandler handles HTTP requests for the static dataset artifacts
type DatasetHandler struct {
	service *service.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// GetMeta handles GET /api/v1/meta
func (h *DatasetHandler) GetMeta(c *gin.Context) {
	meta, err := h.service.Meta()
	if err != nil {
		serviceError(c, "Failed to get meta", err)
		return
	}
	response.Success(c, meta)
}

// GetNodes handles GET /api/v1/nodes
func (h *DatasetHandler) GetNodes(c *gin.Context) {
	nodes, err := h.service.Nodes()
	if err != nil {
		serviceError(c, "Failed to get nodes", err)
		return
	}
	response.Success(c, gin.H{
		"data":  nodes,
		"count": len(nodes),
	})
}

// GetDestinations handles GET /api/v1/destinations
func (h *DatasetHandler) GetDestinations(c *gin.Context) {
	dests, err := h.service.Destinations()
	if err != nil {
		serviceError(c, "Failed to get destinations", err)
		return
	}
	response.Success(c, gin.H{
		"data":  dests,
		"count": len(dests),
	})
}

// GetFlows handles GET /api/v1/flows
func (h *DatasetHandler) GetFlows(c *gin.Context) {
	var filter models.FlowFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if filter.Limit < 0 {
		response.BadRequest(c, "limit must not be negative")
		return
	}

	flows, err := h.service.ListFlows(filter)
	if err != nil {
		serviceError(c, "Failed to get flows", err)
		return
	}
	response.Success(c, gin.H{
		"data":  flows,
		"count": len(flows),
	})
}

// GetFlow handles GET /api/v1/flows/:o/:d
func (h *DatasetHandler) GetFlow(c *gin.Context) {
	detail, err := h.service.GetFlow(c.Param("o"), c.Param("d"))
	if err != nil {
		serviceError(c, "Flow not found", err)
		return
	}
	response.Success(c, detail)
}

// GetSummary handles GET /api/v1/summary
func (h *DatasetHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		serviceError(c, "Failed to summarize dataset", err)
		return
	}
	response.Success(c, summary)
}

// GetFrame handles GET /api/v1/frames/:hour
func (h *DatasetHandler) GetFrame(c *gin.Context) {
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid hour", err)
		return
	}

	frame, err := h.service.Frame(hour)
	if err != nil {
		serviceError(c, "Invalid hour", err)
		return
	}
	response.Success(c, frame)
}
