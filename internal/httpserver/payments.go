package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/payment"
)

type sessionRequest struct {
	// Amount in minor units.
	Amount int64 `json:"amount" binding:"required"`
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

func (h *handlers) createPaymentSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}
	session, err := h.deps.Payments.CreateSession(c.Request.Context(), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *handlers) verifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}
	res, err := h.deps.Payments.HandleCallback(c.Request.Context(), payment.Callback{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		h.failSuccess(c, err)
		return
	}
	if err := res.Err(); err != nil {
		h.failSuccess(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
