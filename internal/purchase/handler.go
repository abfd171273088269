package purchase

import (
	"errors"
	"net/http"

	"overlaykit/internal/api"
	"overlaykit/internal/auth"
	"overlaykit/internal/subscription"
	"overlaykit/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PurchaseRequest struct {
	PackageID string `json:"package_id" binding:"required,uuid"`
}

type Handler struct {
	orchestrator *Orchestrator
}

func NewHandler(o *Orchestrator) *Handler {
	return &Handler{orchestrator: o}
}

func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid package id"})
		return
	}

	res, err := h.orchestrator.Purchase(c.Request.Context(), userID, packageID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func writeError(c *gin.Context, err error) {
	var ife *wallet.InsufficientFundsError
	switch {
	case errors.Is(err, ErrCompensationFailed):
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "purchase failed"})
	case errors.As(err, &ife):
		c.JSON(http.StatusBadRequest, api.InsufficientFundsResponse{
			Error:    wallet.ErrInsufficientFunds.Error(),
			Balance:  ife.Balance,
			Required: ife.Required,
		})
	case errors.Is(err, subscription.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, wallet.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "purchase failed"})
	}
}
