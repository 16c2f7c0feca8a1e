package public

import (
	"github.com/ecommapi/internal/http/response"

	"github.com/gin-gonic/gin"
)

// StripeConfig 返回前端使用的 Stripe 公钥
func (h *Handler) StripeConfig(c *gin.Context) {
	response.Success(c, gin.H{"public_key": h.PaymentService.PublishableKey()})
}

// CreateCheckoutSession 为订单创建结账会话，已支付订单返回 400
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	session, err := h.PaymentService.CreateCheckoutSession(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err, "checkout session failed")
		return
	}
	response.Success(c, session)
}
