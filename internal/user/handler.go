package user

import (
	"errors"
	"net/http"

	"overlaykit/internal/api"
	"overlaykit/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	user, tokens, err := h.svc.Register(c.Request.Context(), req)
	if errors.Is(err, ErrEmailExists) {
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         *user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	user, tokens, err := h.svc.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
		return
	case errors.Is(err, ErrUserLocked):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         *user,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	user, err := h.svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	access, user, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
		return
	case errors.Is(err, ErrUserLocked):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"user":         user,
	})
}
