package worker

import (
	"context"
	"errors"

	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/queue"
	"github.com/ecommapi/internal/service"

	"github.com/hibiken/asynq"
)

// OrderLoader 按 ID 读取订单
type OrderLoader interface {
	GetByID(id uint) (*models.Order, error)
}

// NotificationDeliverer 立即发送订单通知
type NotificationDeliverer interface {
	Deliver(kind string, orderID, userID uint) error
}

// Consumer 异步任务消费者
type Consumer struct {
	orders   OrderLoader
	notifier NotificationDeliverer
}

// NewConsumer 创建消费者
func NewConsumer(orders OrderLoader, notifier NotificationDeliverer) *Consumer {
	return &Consumer{
		orders:   orders,
		notifier: notifier,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotification, c.handleOrderNotification)
}

func (c *Consumer) handleOrderNotification(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderNotificationPayload(task)
	if err != nil {
		logger.Warnw("worker_order_notification_unmarshal_failed", "error", err)
		// 载荷损坏重试无意义
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 || payload.Kind == "" {
		logger.Debugw("worker_order_notification_skip_invalid_payload", "order_id", payload.OrderID, "kind", payload.Kind)
		return nil
	}
	order, err := c.orders.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_notification_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_notification_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	err = c.notifier.Deliver(payload.Kind, order.ID, order.UserID)
	switch {
	case err == nil:
		logger.Infow("worker_order_notification_sent", "order_id", order.ID, "kind", payload.Kind)
		return nil
	case errors.Is(err, service.ErrEmailServiceDisabled),
		errors.Is(err, service.ErrEmailServiceNotConfigured):
		logger.Debugw("worker_order_notification_skip_email_disabled", "order_id", order.ID, "kind", payload.Kind)
		return nil
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("worker_order_notification_skip_recipient",
			"order_id", order.ID,
			"user_id", order.UserID,
			"kind", payload.Kind,
			"error", err,
		)
		return nil
	default:
		logger.Warnw("worker_order_notification_send_failed",
			"order_id", order.ID,
			"kind", payload.Kind,
			"error", err,
		)
		return err
	}
}
