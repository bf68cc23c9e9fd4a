package handlers

import (
	"errors"
	"net/http"
	"strings"

	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"
	"fortmix-erp/internal/store"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"max=120"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest leaves blank fields untouched.
type UpdateUserRequest struct {
	Name     string `json:"name" binding:"max=120"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest

	// 1. Validate input
	if err := c.ShouldBindJSON(&req); err != nil || !models.Role(req.Role).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Hash the password
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err, "Failed to hash password")
		return
	}

	// 3. Save
	actorID, _ := middleware.CurrentUser(c)
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         models.Role(req.Role),
	}
	if err := h.store.CreateUser(c.Request.Context(), actorID, user); err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Role != "" && !models.Role(req.Role).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	update := store.UserUpdate{Name: strings.TrimSpace(req.Name), Role: models.Role(req.Role)}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		update.PasswordHash = hash
	}

	actorID, _ := middleware.CurrentUser(c)
	if err := h.store.UpdateUser(c.Request.Context(), actorID, id, update); err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
