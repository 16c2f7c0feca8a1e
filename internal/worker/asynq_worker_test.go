package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/ecommapi/internal/constants"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/queue"
	"github.com/ecommapi/internal/service"

	"github.com/hibiken/asynq"
)

type stubOrders struct {
	orders map[uint]*models.Order
	err    error
}

func (s *stubOrders) GetByID(id uint) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orders[id], nil
}

type delivery struct {
	kind    string
	orderID uint
	userID  uint
}

type stubNotifier struct {
	err  error
	sent []delivery
}

func (s *stubNotifier) Deliver(kind string, orderID, userID uint) error {
	s.sent = append(s.sent, delivery{kind: kind, orderID: orderID, userID: userID})
	return s.err
}

func newNotificationTask(t *testing.T, orderID uint, kind string) *asynq.Task {
	t.Helper()
	task, err := queue.NewOrderNotificationTask(queue.OrderNotificationPayload{OrderID: orderID, Kind: kind})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleOrderNotificationDelivers(t *testing.T) {
	orders := &stubOrders{orders: map[uint]*models.Order{7: {ID: 7, UserID: 3}}}
	notifier := &stubNotifier{}
	consumer := NewConsumer(orders, notifier)

	task := newNotificationTask(t, 7, constants.NotificationPaymentConfirmed)
	if err := consumer.handleOrderNotification(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(notifier.sent))
	}
	want := delivery{kind: constants.NotificationPaymentConfirmed, orderID: 7, userID: 3}
	if notifier.sent[0] != want {
		t.Fatalf("unexpected delivery, want %+v, got %+v", want, notifier.sent[0])
	}
}

func TestHandleOrderNotificationSkips(t *testing.T) {
	tests := []struct {
		name string
		task *asynq.Task
	}{
		{name: "missing_order", task: newNotificationTask(t, 99, constants.NotificationOrderPending)},
		{name: "zero_order_id", task: newNotificationTask(t, 0, constants.NotificationOrderPending)},
		{name: "empty_kind", task: newNotificationTask(t, 7, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &stubNotifier{}
			consumer := NewConsumer(&stubOrders{orders: map[uint]*models.Order{7: {ID: 7, UserID: 3}}}, notifier)
			if err := consumer.handleOrderNotification(context.Background(), tt.task); err != nil {
				t.Fatalf("expected skip without error, got %v", err)
			}
			if len(notifier.sent) != 0 {
				t.Fatalf("expected no delivery, got %+v", notifier.sent)
			}
		})
	}
}

func TestHandleOrderNotificationErrors(t *testing.T) {
	transient := errors.New("dial tcp timeout")
	tests := []struct {
		name      string
		sendErr   error
		wantRetry bool
	}{
		{name: "transient", sendErr: transient, wantRetry: true},
		{name: "email_disabled", sendErr: service.ErrEmailServiceDisabled},
		{name: "recipient_rejected", sendErr: service.ErrEmailRecipientRejected},
		{name: "user_gone", sendErr: service.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewConsumer(
				&stubOrders{orders: map[uint]*models.Order{7: {ID: 7, UserID: 3}}},
				&stubNotifier{err: tt.sendErr},
			)
			err := consumer.handleOrderNotification(context.Background(), newNotificationTask(t, 7, constants.NotificationOrderPending))
			if tt.wantRetry && !errors.Is(err, tt.sendErr) {
				t.Fatalf("expected error to be returned for retry, got %v", err)
			}
			if !tt.wantRetry && err != nil {
				t.Fatalf("expected error to be swallowed, got %v", err)
			}
		})
	}
}

func TestHandleOrderNotificationBadPayload(t *testing.T) {
	consumer := NewConsumer(&stubOrders{}, &stubNotifier{})
	err := consumer.handleOrderNotification(context.Background(), asynq.NewTask(constants.TaskOrderNotification, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry for corrupt payload, got %v", err)
	}
	fetchErr := errors.New("db down")
	consumer = NewConsumer(&stubOrders{err: fetchErr}, &stubNotifier{})
	if err := consumer.handleOrderNotification(context.Background(), newNotificationTask(t, 1, constants.NotificationOrderPending)); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
