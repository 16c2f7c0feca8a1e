package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory 商品库存表
// Quantity 为可售（未被订单占用）数量，Sold 为已支付数量
type Inventory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Quantity  int       `gorm:"not null;default:0;check:chk_inventories_quantity,quantity >= 0" json:"quantity"`
	Sold      int       `gorm:"not null;default:0;check:chk_inventories_sold,sold >= 0" json:"sold"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Inventory) TableName() string {
	return "inventories"
}

// Product 商品表
type Product struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Name             string    `gorm:"size:100;not null;index" json:"name"`
	Price            Money     `gorm:"type:decimal(9,2);not null" json:"price"`
	DiscountPrice    *Money    `gorm:"type:decimal(9,2)" json:"discount_price"`
	Weight           *float64  `json:"weight,omitempty"`
	ShortDescription string    `gorm:"size:1000" json:"short_description"`
	LongDescription  string    `gorm:"type:text" json:"long_description"`
	CategoryID       *uint     `gorm:"index" json:"category_id"`
	Category         *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	InventoryID      uint      `gorm:"uniqueIndex;not null" json:"-"`
	Inventory        Inventory `gorm:"constraint:OnDelete:RESTRICT" json:"inventory"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	AverageRating *float64 `gorm:"-" json:"average_rating"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// HasDiscount 是否设置了折扣价
func (p *Product) HasDiscount() bool {
	return p != nil && p.DiscountPrice != nil
}

// EffectivePrice 实际售价，有折扣价时取折扣价
func (p *Product) EffectivePrice() Money {
	if p.HasDiscount() {
		return *p.DiscountPrice
	}
	return p.Price
}

// DiscountedBy 按百分比计算折扣价，保留 2 位小数
func (p *Product) DiscountedBy(percentage int) Money {
	factor := decimal.NewFromInt(100 - int64(percentage)).Div(decimal.NewFromInt(100))
	return NewMoneyFromDecimal(p.Price.Decimal.Mul(factor))
}

// ProductReview 商品评价表
type ProductReview struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ProductID   uint      `gorm:"index;not null" json:"product_id"`
	Product     *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Rating      float64   `gorm:"not null;default:0;check:chk_product_reviews_rating,rating >= 0 AND rating <= 5" json:"rating"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ProductReview) TableName() string {
	return "product_reviews"
}
