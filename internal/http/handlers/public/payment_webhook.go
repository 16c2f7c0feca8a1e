package public

import (
	"io"
	"net/http"
	"strings"

	"github.com/ecommapi/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 1 << 16
)

// StripeWebhook Stripe 回调。
// 验签失败返回 400；订单不存在返回 404；取回支付意图失败返回 500 让 Stripe 重试。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		response.BadRequest(c, "invalid payload")
		return
	}
	signature := strings.TrimSpace(c.GetHeader(stripeSignatureHeader))
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"has_signature", signature != "",
	)

	outcome, err := h.PaymentService.HandleStripeWebhook(c.Request.Context(), signature, body)
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "error", err)
		respondServiceError(c, err, "webhook processing failed")
		return
	}
	response.Success(c, gin.H{
		"accepted": true,
		"outcome":  string(outcome),
	})
}
