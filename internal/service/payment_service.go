package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/payment/stripe"
	"github.com/ecommapi/internal/repository"

	"github.com/shopspring/decimal"
)

// StripeGateway 支付网关能力
type StripeGateway interface {
	PublishableKey() string
	Currency() string
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	VerifyWebhook(signatureHeader string, body []byte, now time.Time) (*stripe.Event, error)
}

// WebhookOutcome webhook 处理结果
type WebhookOutcome string

const (
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
)

// CheckoutSessionResult 创建结账会话结果
type CheckoutSessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentService Stripe 支付服务
type PaymentService struct {
	gateway   StripeGateway
	orderRepo repository.OrderRepository
	orders    *OrderService
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(gateway StripeGateway, orderRepo repository.OrderRepository, orders *OrderService, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		orderRepo: orderRepo,
		orders:    orders,
		metrics:   m,
		now:       time.Now,
	}
}

// PublishableKey 前端初始化 Stripe 使用的公钥
func (s *PaymentService) PublishableKey() string {
	return s.gateway.PublishableKey()
}

// CreateCheckoutSession 为订单创建 Stripe 结账会话
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, actor Actor, orderID uint) (*CheckoutSessionResult, error) {
	order, err := s.orders.Get(actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentAccepted {
		return nil, ErrPaymentAlreadyAccepted
	}
	amount := order.Total.MinorUnits()
	if amount <= 0 {
		return nil, ErrOrderTotalInvalid
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		OrderID:     order.ID,
		Name:        fmt.Sprintf("Order #%d", order.ID),
		AmountMinor: amount,
		Currency:    s.gateway.Currency(),
	})
	if err != nil {
		s.metrics.CheckoutSession("error")
		logger.Warnw("stripe_checkout_session_failed", "order_id", order.ID, "error", err)
		if errors.Is(err, stripe.ErrUnavailable) || errors.Is(err, stripe.ErrRequestFailed) {
			return nil, ErrPaymentUnavailable
		}
		return nil, err
	}
	s.metrics.CheckoutSession("created")
	logger.Infow("stripe_checkout_session_created", "order_id", order.ID, "session_id", session.ID, "amount_minor", amount)
	return &CheckoutSessionResult{SessionID: session.ID, URL: session.URL}, nil
}

// HandleStripeWebhook 校验并处理 Stripe 回调
// 非 checkout.session.completed 事件直接忽略；重复事件不会重复履约
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, signatureHeader string, body []byte) (WebhookOutcome, error) {
	event, err := s.gateway.VerifyWebhook(signatureHeader, body, s.now())
	if err != nil {
		s.metrics.WebhookEvent("unknown", "rejected")
		logger.Warnw("stripe_webhook_verify_failed", "error", err)
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			return "", ErrWebhookSignatureInvalid
		}
		return "", ErrWebhookPayloadInvalid
	}
	if event.Type != stripe.EventCheckoutCompleted {
		s.metrics.WebhookEvent(event.Type, string(WebhookIgnored))
		logger.Debugw("stripe_webhook_ignored", "event_id", event.ID, "type", event.Type)
		return WebhookIgnored, nil
	}
	if event.OrderID == 0 {
		s.metrics.WebhookEvent(event.Type, "rejected")
		return "", ErrWebhookPayloadInvalid
	}

	order, err := s.orderRepo.GetByID(event.OrderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		s.metrics.WebhookEvent(event.Type, "order_missing")
		return "", ErrOrderNotFound
	}
	if order.PaymentAccepted {
		s.metrics.WebhookEvent(event.Type, string(WebhookDuplicate))
		logger.Infow("stripe_webhook_duplicate", "event_id", event.ID, "order_id", order.ID)
		return WebhookDuplicate, nil
	}

	chargeID, err := s.resolveChargeID(ctx, event)
	if err != nil {
		s.metrics.WebhookEvent(event.Type, "error")
		return "", err
	}
	applied, err := s.orders.FulfillOrder(FulfillInput{
		OrderID:  event.OrderID,
		ChargeID: chargeID,
		Amount:   models.NewMoneyFromDecimal(decimal.New(event.AmountTotal, -2)),
	})
	if err != nil {
		s.metrics.WebhookEvent(event.Type, "error")
		return "", err
	}
	outcome := WebhookApplied
	if !applied {
		outcome = WebhookDuplicate
	}
	s.metrics.WebhookEvent(event.Type, string(outcome))
	logger.Infow("stripe_webhook_processed", "event_id", event.ID, "order_id", event.OrderID, "charge_id", chargeID, "outcome", string(outcome))
	return outcome, nil
}

// resolveChargeID 取回支付意图上的 charge，缺失时依次回退到支付意图与会话 ID
func (s *PaymentService) resolveChargeID(ctx context.Context, event *stripe.Event) (string, error) {
	if strings.TrimSpace(event.PaymentIntentID) == "" {
		return event.SessionID, nil
	}
	intent, err := s.gateway.RetrievePaymentIntent(ctx, event.PaymentIntentID)
	if err != nil {
		logger.Warnw("stripe_payment_intent_retrieve_failed", "event_id", event.ID, "payment_intent_id", event.PaymentIntentID, "error", err)
		return "", err
	}
	if intent.ChargeID != "" {
		return intent.ChargeID, nil
	}
	return intent.ID, nil
}
