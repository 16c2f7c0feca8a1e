package service

import (
	"fmt"
	"sync"

	"github.com/ecommapi/internal/constants"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/queue"
	"github.com/ecommapi/internal/repository"
)

// OrderMailer 订单邮件发送
type OrderMailer interface {
	SendOrderPending(toEmail string, orderID uint) error
	SendPaymentConfirmed(toEmail string, orderID uint) error
}

// NotificationService 订单通知服务
// 队列启用时入队由 worker 发送，否则在后台 goroutine 发送，不阻塞调用方；失败只记录日志
type NotificationService struct {
	queueClient *queue.Client
	mailer      OrderMailer
	userRepo    repository.UserRepository
	metrics     *metrics.Metrics
	inflight    sync.WaitGroup
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client, mailer OrderMailer, userRepo repository.UserRepository, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		queueClient: queueClient,
		mailer:      mailer,
		userRepo:    userRepo,
		metrics:     m,
	}
}

// NotifyOrderPending 订单创建后通知买家待支付
func (s *NotificationService) NotifyOrderPending(orderID, userID uint) {
	s.notify(constants.NotificationOrderPending, orderID, userID)
}

// NotifyPaymentConfirmed 支付确认后通知买家
func (s *NotificationService) NotifyPaymentConfirmed(orderID, userID uint) {
	s.notify(constants.NotificationPaymentConfirmed, orderID, userID)
}

func (s *NotificationService) notify(kind string, orderID, userID uint) {
	if s == nil {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderNotification(queue.OrderNotificationPayload{OrderID: orderID, Kind: kind})
		if err == nil {
			return
		}
		logger.Warnw("order_notification_enqueue_failed", "order_id", orderID, "kind", kind, "error", err)
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.Deliver(kind, orderID, userID); err != nil {
			s.metrics.NotificationFailed(kind)
			logger.Warnw("order_notification_send_failed", "order_id", orderID, "kind", kind, "error", err)
		}
	}()
}

// Wait 等待后台发送中的通知结束，关闭进程前调用
func (s *NotificationService) Wait() error {
	if s == nil {
		return nil
	}
	s.inflight.Wait()
	return nil
}

// Deliver 立即发送通知邮件，worker 消费任务时也调用此方法
func (s *NotificationService) Deliver(kind string, orderID, userID uint) error {
	if s.mailer == nil {
		return ErrEmailServiceDisabled
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	switch kind {
	case constants.NotificationOrderPending:
		return s.mailer.SendOrderPending(user.Email, orderID)
	case constants.NotificationPaymentConfirmed:
		return s.mailer.SendPaymentConfirmed(user.Email, orderID)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}
}
