package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
	"github.com/twuijri/Vex/internal/repository"
)

// ProviderHandler manages the AI provider cascade from the dashboard: the
// ordered provider list, activation toggles and the usage ledger.
type ProviderHandler interface {
	List(c *gin.Context)
	Add(c *gin.Context)
	Delete(c *gin.Context)
	Toggle(c *gin.Context)
	Move(c *gin.Context)
	ListStats(c *gin.Context)
	DeleteStat(c *gin.Context)
}

type providerHandler struct {
	providers repository.ProviderRepository
	stats     repository.UsageStatRepository
	logger    *zap.Logger
}

func NewProviderHandler(providers repository.ProviderRepository, stats repository.UsageStatRepository, logger *zap.Logger) ProviderHandler {
	return &providerHandler{providers: providers, stats: stats, logger: logger}
}

func (h *providerHandler) List(c *gin.Context) {
	providers, err := h.providers.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list providers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list providers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

type addProviderRequest struct {
	Name     string `json:"name" binding:"required"`
	Kind     string `json:"provider_type" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
	Model    string `json:"model"`
	Priority int    `json:"priority"`
}

func (h *providerHandler) Add(c *gin.Context) {
	var req addProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.ProviderKind(req.Kind)
	switch kind {
	case models.ProviderGoogleStudio, models.ProviderBlackbox, models.ProviderHuggingFace:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider type"})
		return
	}

	provider := &models.Provider{
		Name:     req.Name,
		Kind:     kind,
		APIKey:   req.APIKey,
		Model:    req.Model,
		Priority: req.Priority,
	}
	if err := h.providers.Add(c.Request.Context(), provider); err != nil {
		h.logger.Error("Failed to add provider", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add provider"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"provider": provider})
}

func (h *providerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.providers.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete provider"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

func (h *providerHandler) Toggle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	active, err := h.providers.Toggle(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to toggle provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle provider"})
		return
	}
	if active == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_active": *active})
}

type moveProviderRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func (h *providerHandler) Move(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req moveProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	moved, err := h.providers.Move(c.Request.Context(), id, req.Direction)
	if err != nil {
		h.logger.Error("Failed to move provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move provider"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}

func (h *providerHandler) ListStats(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	stats, err := h.stats.ListRecent(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("Failed to list usage stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list usage stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *providerHandler) DeleteStat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.stats.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete usage stat", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete usage stat"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stat not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stat deleted"})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
