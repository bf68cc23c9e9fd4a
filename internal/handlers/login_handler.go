package handlers

import (
	"fmt"
	"log"
	"net/http"

	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find User and verify the password. Both failures look the same.
	user, err := h.store.FindUserByUsername(c.Request.Context(), input.Username)
	if err != nil || !auth.CheckPassword(input.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Generate JWT Token
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	entry := models.AuditLog{
		UserID:  user.ID,
		Action:  "LOGIN",
		Entity:  "user",
		Details: fmt.Sprintf("User %s signed in from %s", user.Username, c.ClientIP()),
	}
	if err := h.store.AppendAudit(c.Request.Context(), entry); err != nil {
		log.Printf("❌ audit login for %s: %v", user.Username, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}
