package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	orderservice "storefront/internal/service/order"
)

type placeOrderRequest struct {
	CartItems         []orderservice.LineInput `json:"cartItems"`
	PaymentMethod     string                   `json:"paymentMethod"`
	Address           string                   `json:"address"`
	TotalAmount       *decimal.Decimal         `json:"totalAmount"`
	RazorpayOrderID   string                   `json:"razorpayOrderId"`
	RazorpayPaymentID string                   `json:"razorpayPaymentId"`
	RazorpaySignature string                   `json:"razorpaySignature"`
}

type placeOrderResponse struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

type historyResponse struct {
	Orders []domain.Order `json:"orders"`
}

func (h *handlers) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}
	res, err := h.deps.Orders.PlaceOrder(c.Request.Context(), orderservice.PlaceInput{
		UserID:        currentUser(c).ID,
		Items:         req.CartItems,
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,
		Proof: domain.PaymentProof{
			GatewayOrderID:   req.RazorpayOrderID,
			GatewayPaymentID: req.RazorpayPaymentID,
			Signature:        req.RazorpaySignature,
		},
		IdempotencyKey: c.GetHeader(idempotencyHeader),
		ClientTotal:    req.TotalAmount,
	})
	if err != nil {
		h.failSuccess(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, placeOrderResponse{Success: true, Order: res.Order})
}

func (h *handlers) orderHistory(c *gin.Context) {
	orders, err := h.deps.Orders.History(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.failSuccess(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{Orders: orders})
}
