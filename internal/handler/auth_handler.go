package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"placetime/backend/internal/middleware"
	"placetime/backend/internal/service"
)

type AuthHandler struct {
	authService     *service.AuthService
	trackingService *service.TrackingService
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(authService *service.AuthService, trackingService *service.TrackingService) *AuthHandler {
	return &AuthHandler{authService: authService, trackingService: trackingService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_json",
				"message": "invalid request body",
			},
		})
		return
	}

	result, apiErr := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_json",
				"message": "invalid request body",
			},
		})
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Logout stops tracking and cancels pending week checks. Tokens are stateless and simply
// expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if apiErr := h.trackingService.Logout(c.Request.Context(), ownerID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
