package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (h *ProgressHandler) Current(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	progress, apiErr := h.progressService.Current(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *ProgressHandler) Weekly(c *gin.Context) {
	week := c.Query("week")
	if week == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_week", "message": "week is required"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	progress, apiErr := h.progressService.Weekly(c.Request.Context(), ownerID, week)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *ProgressHandler) History(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	history, apiErr := h.progressService.History(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *ProgressHandler) Completions(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	completions, apiErr := h.progressService.Completions(c.Request.Context(), ownerID, c.Query("week"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": completions})
}

func (h *ProgressHandler) Streaks(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	streaks, apiErr := h.progressService.Streaks(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streaks": streaks})
}

func (h *ProgressHandler) Reset(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if apiErr := h.progressService.Reset(c.Request.Context(), ownerID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
