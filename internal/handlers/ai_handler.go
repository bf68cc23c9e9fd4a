package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

func (h *Handler) AskAI(c *gin.Context) {
	// 1. The assistant only exists when GEMINI_API_KEY is set
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	// 2. Run the Agent
	reply, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		log.Printf("❌ assistant: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable right now"})
		return
	}

	// 3. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
