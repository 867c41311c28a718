package handlers

import (
	"errors"
	"net/http"

	"go-coffee-pos/internal/ai"
	"go-coffee-pos/internal/logger"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /api/ask ---
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reply, err := h.Agent.Ask(c.Request.Context(), req.Message, branchID)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		logger.FromContext(c.Request.Context()).Error("assistant failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable right now"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
