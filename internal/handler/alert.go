package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/repository"
)

// AlertHandler exposes alerts still waiting for a reviewer decision. The
// decisions themselves are taken through the Telegram buttons.
type AlertHandler interface {
	ListPending(c *gin.Context)
}

type alertHandler struct {
	alerts repository.AlertRepository
	logger *zap.Logger
}

func NewAlertHandler(alerts repository.AlertRepository, logger *zap.Logger) AlertHandler {
	return &alertHandler{alerts: alerts, logger: logger}
}

func (h *alertHandler) ListPending(c *gin.Context) {
	alerts, err := h.alerts.ListPending(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list pending alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
