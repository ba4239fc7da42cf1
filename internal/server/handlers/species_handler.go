package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// SpeciesService is the read side of the species catalog.
type SpeciesService interface {
	List(ctx context.Context) ([]models.Species, error)
	Get(ctx context.Context, id int64) (models.Species, error)
	Search(ctx context.Context, keyword string) ([]models.Species, error)
}

// SpeciesHandler serves the reference catalog routes.
type SpeciesHandler struct {
	svc    SpeciesService
	logger *zap.Logger
}

// NewSpeciesHandler constructs the catalog handler.
func NewSpeciesHandler(svc SpeciesService, logger *zap.Logger) *SpeciesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpeciesHandler{svc: svc, logger: logger}
}

// List returns the whole catalog.
func (h *SpeciesHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "species": entries})
}

// Search matches ?q= against the Korean and English labels.
func (h *SpeciesHandler) Search(c *gin.Context) {
	entries, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "species": entries})
}

// Get returns one catalog entry.
func (h *SpeciesHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid species id"})
		return
	}
	entry, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
