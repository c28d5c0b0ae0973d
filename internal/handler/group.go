package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/repository"
)

// GroupHandler manages protected groups and their word lists from the
// dashboard.
type GroupHandler interface {
	List(c *gin.Context)
	Deactivate(c *gin.Context)
	ListWords(c *gin.Context)
	AddWord(c *gin.Context)
	RemoveWord(c *gin.Context)
}

type groupHandler struct {
	groups repository.GroupRepository
	logger *zap.Logger
}

func NewGroupHandler(groups repository.GroupRepository, logger *zap.Logger) GroupHandler {
	return &groupHandler{groups: groups, logger: logger}
}

func (h *groupHandler) List(c *gin.Context) {
	groups, err := h.groups.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list groups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *groupHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.groups.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to deactivate group", zap.Int64("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate group"})
		return
	}
	if !deactivated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found or already inactive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deactivated"})
}

func (h *groupHandler) ListWords(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	blocked, err := h.groups.ListBlockedWords(ctx, id)
	if err != nil {
		h.logger.Error("Failed to list blocked words", zap.Int64("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list words"})
		return
	}
	allowed, err := h.groups.ListAllowedWords(ctx, id)
	if err != nil {
		h.logger.Error("Failed to list allowed words", zap.Int64("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list words"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": blocked, "allowed": allowed})
}

type wordRequest struct {
	Word string `json:"word" binding:"required"`
}

func (h *groupHandler) AddWord(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.groups.AddBlockedWord(c.Request.Context(), id, req.Word); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		h.logger.Error("Failed to add blocked word", zap.Int64("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add word"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Word added"})
}

func (h *groupHandler) RemoveWord(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.groups.RemoveBlockedWord(c.Request.Context(), id, req.Word)
	if err != nil {
		h.logger.Error("Failed to remove blocked word", zap.Int64("group_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove word"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Word not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Word removed"})
}
