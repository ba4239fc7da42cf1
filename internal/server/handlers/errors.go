package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/service/plants"
	"github.com/mamadbah2/plantcare/internal/service/reporting"
	"github.com/mamadbah2/plantcare/internal/service/species"
	"github.com/mamadbah2/plantcare/internal/service/weather"
	"github.com/mamadbah2/plantcare/pkg/clients/anthropic"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plants.ErrNotFound),
		errors.Is(err, species.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, plants.ErrInvalidInput),
		errors.Is(err, species.ErrInvalidQuery),
		errors.Is(err, reporting.ErrInvalidMode),
		errors.Is(err, weather.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, anthropic.ErrDisabled),
		errors.Is(err, reporting.ErrExportDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, plants.ErrUpstream),
		errors.Is(err, weather.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "internal error"
	} else {
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plant id"})
		return 0, false
	}
	return id, true
}
