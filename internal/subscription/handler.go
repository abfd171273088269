package subscription

import (
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

func (h *Handler) ListPackages(c *gin.Context) {
	pkgs, err := h.svc.ListPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, pkgs)
}

func (h *Handler) ListMy(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	subs, err := h.svc.ListUserSubscriptions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

func (h *Handler) GetActive(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	sub, err := h.svc.GetActiveSubscription(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no active subscription"})
		return
	}

	c.JSON(http.StatusOK, sub)
}
