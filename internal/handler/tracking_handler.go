package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type TrackingHandler struct {
	trackingService *service.TrackingService
}

type permissionRequest struct {
	Granted *bool `json:"granted"`
}

type fixRequest struct {
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	AccuracyMeters float64    `json:"accuracyMeters"`
	Timestamp      *time.Time `json:"timestamp"`
}

func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) Start(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	status, apiErr := h.trackingService.Start(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *TrackingHandler) Stop(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	status, apiErr := h.trackingService.Stop(c.Request.Context(), ownerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *TrackingHandler) Status(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	c.JSON(http.StatusOK, gin.H{"status": h.trackingService.Status(ownerID)})
}

func (h *TrackingHandler) SetPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Granted == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "granted is required"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	status, apiErr := h.trackingService.SetPermission(c.Request.Context(), ownerID, *req.Granted)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *TrackingHandler) PublishFix(c *gin.Context) {
	var req fixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_coordinates", "message": "latitude and longitude are required"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	result, apiErr := h.trackingService.PublishFix(c.Request.Context(), ownerID, service.FixInput{
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		Timestamp:      req.Timestamp,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h *TrackingHandler) Sessions(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	sessions, apiErr := h.trackingService.Sessions(c.Request.Context(), ownerID, c.Query("week"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
