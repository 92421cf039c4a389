package handler

import (
	"net/http"
	"strconv"

	"aviaskill/internal/repository"

	"github.com/gin-gonic/gin"
)

// TurnsHandler exposes the turn log for diagnostics
type TurnsHandler struct {
	repo *repository.PostgresRepository
}

// NewTurnsHandler creates a new turns handler
func NewTurnsHandler(repo *repository.PostgresRepository) *TurnsHandler {
	return &TurnsHandler{repo: repo}
}

// List handles GET /api/v1/turns
func (h *TurnsHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > 200 {
		limit = 200
	}

	turns, err := h.repo.RecentTurns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch turns: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns, "count": len(turns)})
}
