package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/repository"
)

// AdminHandler lists the bot administrators registered in the database.
type AdminHandler interface {
	List(c *gin.Context)
}

type adminHandler struct {
	admins repository.AdminRepository
	logger *zap.Logger
}

func NewAdminHandler(admins repository.AdminRepository, logger *zap.Logger) AdminHandler {
	return &adminHandler{admins: admins, logger: logger}
}

func (h *adminHandler) List(c *gin.Context) {
	admins, err := h.admins.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list admins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list admins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}
