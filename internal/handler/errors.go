package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weipengdeng/flowmap/internal/service"
	"github.com/weipengdeng/flowmap/pkg/response"
)

// serviceError maps service errors onto HTTP status codes
func serviceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrNotLoaded):
		response.Error(c, http.StatusServiceUnavailable, "Dataset not loaded", err)
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrInvalidHour), errors.Is(err, service.ErrInvalidGeometry):
		response.Error(c, http.StatusBadRequest, message, err)
	default:
		response.InternalError(c, message, err)
	}
}
