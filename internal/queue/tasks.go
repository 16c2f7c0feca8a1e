package queue

import (
	"encoding/json"

	"github.com/ecommapi/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotification 订单邮件通知任务
	TaskOrderNotification = constants.TaskOrderNotification
)

// OrderNotificationPayload 订单通知任务载荷
type OrderNotificationPayload struct {
	OrderID uint   `json:"order_id"`
	Kind    string `json:"kind"`
}

// NewOrderNotificationTask 创建订单通知任务
func NewOrderNotificationTask(payload OrderNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotification, body), nil
}

// ParseOrderNotificationPayload 解析订单通知任务载荷
func ParseOrderNotificationPayload(task *asynq.Task) (OrderNotificationPayload, error) {
	var payload OrderNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
