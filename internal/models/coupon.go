package models

import "time"

// Coupon 优惠券表（固定金额抵扣）
type Coupon struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Code          string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Amount        Money     `gorm:"type:decimal(9,2);not null" json:"amount"`
	MinOrderTotal Money     `gorm:"type:decimal(9,2);not null" json:"min_order_total"`
	IsActive      bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
