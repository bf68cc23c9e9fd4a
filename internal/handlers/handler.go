package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/store"

	"github.com/gin-gonic/gin"
)

// Assistant answers free-form questions about the store.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Handler holds the collaborators every endpoint needs.
type Handler struct {
	store     store.Store
	tokens    *auth.TokenManager
	assistant Assistant // nil when no API key is configured
	loc       *time.Location
}

func New(st store.Store, tokens *auth.TokenManager, assistant Assistant, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{store: st, tokens: tokens, assistant: assistant, loc: loc}
}

// respondError maps store errors onto HTTP statuses. Unknown errors are
// logged and hidden behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists. Check the code or username."})
	case errors.Is(err, store.ErrTotalMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sale total does not match its items"})
	case errors.Is(err, store.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, store.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	case errors.Is(err, store.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// parseRange reads the optional ?from=&to= query. Both accept YYYY-MM-DD or
// RFC3339; a bare "to" date covers the whole day.
func (h *Handler) parseRange(c *gin.Context) (store.Range, error) {
	var r store.Range

	if v := c.Query("from"); v != "" {
		from, _, err := h.parseTime(v)
		if err != nil {
			return r, err
		}
		r.From = from
	}
	if v := c.Query("to"); v != "" {
		to, dateOnly, err := h.parseTime(v)
		if err != nil {
			return r, err
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.To = to
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, store.ErrInvalidInput
	}
	return r, nil
}

func (h *Handler) parseTime(v string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(time.DateOnly, v, h.loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, store.ErrInvalidInput
	}
	return t, false, nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) rangeOrAbort(c *gin.Context) (store.Range, bool) {
	r, err := h.parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range"})
		return r, false
	}
	return r, true
}
