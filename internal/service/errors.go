package service

import "errors"

// 错误分类，handler 按分类映射 HTTP 状态
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrUnavailable      = errors.New("upstream unavailable")
)

// BusinessError 带分类与字段的业务错误
type BusinessError struct {
	kind  error
	Field string
	Msg   string
}

func newError(kind error, field, msg string) *BusinessError {
	return &BusinessError{kind: kind, Field: field, Msg: msg}
}

func (e *BusinessError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// Is 使 errors.Is(err, ErrNotFound) 等分类判断成立
func (e *BusinessError) Is(target error) bool {
	return target == e.kind
}

// Kind 返回错误分类
func (e *BusinessError) Kind() error {
	return e.kind
}

// 资源不存在（含无权访问）
var (
	ErrUserNotFound     = newError(ErrNotFound, "", "user not found")
	ErrAddressNotFound  = newError(ErrNotFound, "address_id", "address not found")
	ErrCartNotFound     = newError(ErrNotFound, "", "cart not found")
	ErrCartItemNotFound = newError(ErrNotFound, "", "cart item not found")
	ErrProductNotFound  = newError(ErrNotFound, "product_id", "product not found")
	ErrCategoryNotFound = newError(ErrNotFound, "", "category not found")
	ErrReviewNotFound   = newError(ErrNotFound, "", "review not found")
	ErrCouponNotFound   = newError(ErrNotFound, "coupon_code", "coupon not found")
	ErrOrderNotFound    = newError(ErrNotFound, "", "order not found")
)

// 业务规则校验失败
var (
	ErrInsufficientStock      = newError(ErrValidation, "quantity", "not enough available products in stock")
	ErrInvalidQuantity        = newError(ErrValidation, "quantity", "quantity is invalid")
	ErrEmptyCart              = newError(ErrValidation, "items", "The cart is empty")
	ErrInvalidCouponConfig    = newError(ErrValidation, "min_order_total", "Minimal order total must be bigger than the coupon amount")
	ErrInvalidCouponAmount    = newError(ErrValidation, "amount", "amount must not be negative")
	ErrCouponBelowThreshold   = newError(ErrValidation, "coupon", "Order total is too low to use this coupon.")
	ErrPasswordMismatch       = newError(ErrValidation, "password", "The two password fields didn't match.")
	ErrInvalidBirthday        = newError(ErrValidation, "birthday", "date must be in YYYY-MM-DD format")
	ErrInvalidDiscount        = newError(ErrValidation, "percentage", "percentage must be between 0 and 100")
	ErrInvalidPrice           = newError(ErrValidation, "price", "price must be greater than zero")
	ErrPaymentAlreadyAccepted = newError(ErrValidation, "payment", "Payment already accepted")
	ErrOrderTotalInvalid      = newError(ErrValidation, "total", "order total must be greater than zero")
)

// 冲突
var (
	ErrOrderAlreadyAccepted = newError(ErrConflict, "order", "order already accepted")
	ErrUsernameTaken        = newError(ErrConflict, "username", "Username already in use!")
	ErrEmailTaken           = newError(ErrConflict, "email", "Email already in use!")
	ErrCouponCodeTaken      = newError(ErrConflict, "code", "coupon code already in use")
	ErrCouponInUse          = newError(ErrConflict, "coupon", "coupon is referenced by orders")
	ErrCategoryNameTaken    = newError(ErrConflict, "name", "category already exists")
	ErrProductInUse         = newError(ErrConflict, "product", "product is referenced by orders")
)

// 鉴权
var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "", "invalid username or password")
	ErrUserDisabled       = newError(ErrUnauthorized, "", "user is disabled")
	ErrNotOwner           = newError(ErrForbidden, "", "only the owner can modify this resource")
	ErrStatusChangeDenied = newError(ErrForbidden, "is_active", "only superusers can change account status")
)

// 支付回调
var (
	ErrWebhookSignatureInvalid = newError(ErrSignatureInvalid, "signature", "webhook signature verification failed")
	ErrWebhookPayloadInvalid   = newError(ErrSignatureInvalid, "payload", "webhook payload is invalid")
	ErrPaymentUnavailable      = newError(ErrUnavailable, "", "payment provider unavailable")
)

// 邮件
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// validationError 构造字段级校验错误
func validationError(field, msg string) *BusinessError {
	return newError(ErrValidation, field, msg)
}
