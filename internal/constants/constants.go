package constants

// 订单阶段（由 order_accepted / payment_accepted 标志推导）
const (
	OrderStageCreated = "created"
	OrderStagePaid    = "paid"
)

// 订单通知类型
const (
	NotificationOrderPending     = "order_pending"
	NotificationPaymentConfirmed = "payment_confirmed"
)

// 队列与任务常量
const (
	QueueDefault          = "default"
	TaskOrderNotification = "order:notify"
)

// 权限角色与资源
const (
	RoleStaff     = "role:staff"
	ResourceAPI   = "/api/v1"
	DefaultSender = "ecommapi@ecommapi.com"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// 日期格式
const DateLayout = "2006-01-02"

// 登录日志
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogFailReasonBadCredentials = "invalid_credentials"
	LoginLogFailReasonDisabled       = "user_disabled"
	LoginLogFailReasonInternalError  = "internal_error"
)
