package models

import "time"

// PaymentDetails 支付记录表，每个已对账订单仅一条
type PaymentDetails struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	StripeChargeID string    `gorm:"uniqueIndex;size:255;not null" json:"stripe_charge_id"`
	Amount         Money     `gorm:"type:decimal(9,2);not null" json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (PaymentDetails) TableName() string {
	return "payment_details"
}
