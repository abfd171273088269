package admin

import (
	"errors"
	"net/http"
	"strconv"

	"overlaykit/internal/api"
	"overlaykit/internal/auth"
	"overlaykit/internal/subscription"
	"overlaykit/internal/user"
	"overlaykit/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// identities resolves the calling admin and the :userID path parameter.
func identities(c *gin.Context) (adminID, targetID int, ok bool) {
	adminID, ok = auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return 0, 0, false
	}
	targetID, err := strconv.Atoi(c.Param("userID"))
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return 0, 0, false
	}
	return adminID, targetID, true
}

func (h *Handler) AdjustWallet(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	var req AdjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.AdjustWallet(c.Request.Context(), adminID, targetID, Action(req.Action), req.Amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetUserWallet(c *gin.Context) {
	_, targetID, ok := identities(c)
	if !ok {
		return
	}

	w, err := h.svc.GetUserWallet(c.Request.Context(), targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) AssignPackage(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	var req AssignPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid package id"})
		return
	}

	sub, err := h.svc.AssignPackage(c.Request.Context(), adminID, targetID, packageID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) LockUser(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	u, err := h.svc.LockUser(c.Request.Context(), adminID, targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UnlockUser(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	u, err := h.svc.UnlockUser(c.Request.Context(), adminID, targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) EditUser(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	u, err := h.svc.EditUser(c.Request.Context(), adminID, targetID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	adminID, targetID, ok := identities(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), adminID, targetID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "user deleted"})
}

func (h *Handler) ListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	target, _ := strconv.Atoi(c.DefaultQuery("user_id", "0"))

	entries, err := h.svc.ListAudit(c.Request.Context(), target, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load audit log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func writeError(c *gin.Context, err error) {
	var ife *wallet.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		c.JSON(http.StatusBadRequest, api.InsufficientFundsResponse{
			Error:    wallet.ErrInsufficientFunds.Error(),
			Balance:  ife.Balance,
			Required: ife.Required,
		})
	case errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, subscription.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "admin action failed"})
	}
}
