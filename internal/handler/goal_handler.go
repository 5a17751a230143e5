package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

type goalRequest struct {
	TargetHours float64 `json:"targetHours"`
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func (h *GoalHandler) List(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	goals, apiErr := h.goalService.List(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *GoalHandler) Set(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	goal, apiErr := h.goalService.Set(c.Request.Context(), ownerID, c.Param("category"), req.TargetHours)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

func (h *GoalHandler) Remove(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if apiErr := h.goalService.Remove(c.Request.Context(), ownerID, c.Param("category")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckWeek is the foreground trigger for the week transition check.
func (h *GoalHandler) CheckWeek(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	result, apiErr := h.goalService.CheckWeek(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rollover": result})
}
