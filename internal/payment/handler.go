package payment

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"overlaykit/internal/api"
	"overlaykit/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookAck is the literal body the processor expects on every callback.
const WebhookAck = "*ok*"

type Handler struct {
	svc        *Service
	reconciler *Reconciler
}

func NewHandler(svc *Service, reconciler *Reconciler) *Handler {
	return &Handler{svc: svc, reconciler: reconciler}
}

// Webhook always answers 200 *ok*. Outcomes are only visible in logs,
// metrics and the payment request's status.
func (h *Handler) Webhook(c *gin.Context) {
	cb := Callback{
		PaymentID: c.Query("payment_id"),
		Secret:    c.Query("secret"),
		TxID:      c.Query("txid_in"),
		Pending:   !isFinal(c.Query("pending")),
	}
	if n, err := strconv.Atoi(c.Query("confirmations")); err == nil && n >= 0 {
		cb.Confirmations = n
	}

	_, _ = h.reconciler.HandleCallback(c.Request.Context(), cb)
	c.String(http.StatusOK, WebhookAck)
}

// isFinal reports whether the callback explicitly marks the deposit final.
// A missing or unrecognized pending value is treated as a pending notice.
func isFinal(pending string) bool {
	switch strings.ToLower(strings.TrimSpace(pending)) {
	case "0", "false", "no":
		return true
	}
	return false
}

func (h *Handler) CreateTopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req CreateTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	p, err := h.svc.CreateTopUp(c.Request.Context(), userID, req.Coin, req.AmountFiat)
	if err != nil {
		if ext, ok := IsExternal(err); ok {
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: ext.Error()})
			return
		}
		switch {
		case errors.Is(err, ErrUnsupportedCoin), errors.Is(err, ErrAmountTooSmall):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create payment"})
		}
		return
	}

	addr, _ := p.Metadata["address_in"].(string)
	c.JSON(http.StatusCreated, TopUpResponse{Payment: p, Address: addr})
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payment id"})
		return
	}

	p, err := h.svc.GetForUser(c.Request.Context(), userID, id)
	if errors.Is(err, ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load payment"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	ps, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, ps)
}
