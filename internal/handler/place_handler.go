package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type PlaceHandler struct {
	placeService *service.PlaceService
}

type placeRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters"`
	Category     string  `json:"category"`
}

func (r placeRequest) input() service.PlaceInput {
	return service.PlaceInput{
		Name:         r.Name,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		RadiusMeters: r.RadiusMeters,
		Category:     r.Category,
	}
}

func NewPlaceHandler(placeService *service.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

func (h *PlaceHandler) List(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	places, apiErr := h.placeService.List(c.Request.Context(), ownerID, c.Query("category"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}

func (h *PlaceHandler) Create(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	place, apiErr := h.placeService.Create(c.Request.Context(), ownerID, req.input())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"place": place})
}

func (h *PlaceHandler) Update(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	ownerID := middleware.OwnerID(c)
	place, apiErr := h.placeService.Update(c.Request.Context(), ownerID, c.Param("id"), req.input())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": place})
}

func (h *PlaceHandler) Delete(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if apiErr := h.placeService.Delete(c.Request.Context(), ownerID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
