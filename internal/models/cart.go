package models

import "time"

// Cart 购物车表
type Cart struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// Total 购物车合计（按商品当前价格）
func (c *Cart) Total() Money {
	var total Money
	for i := range c.Items {
		total = total.Plus(c.Items[i].FinalPrice())
	}
	return total
}

// CartItem 购物车项表，(cart_id, product_id) 唯一
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"uniqueIndex:idx_cart_items_cart_product;not null" json:"cart_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_items_cart_product;not null" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// TotalItemPrice 原价小计
func (i *CartItem) TotalItemPrice() Money {
	if i.Product == nil {
		return Money{}
	}
	return i.Product.Price.Times(i.Quantity)
}

// TotalDiscountItemPrice 折扣价小计，无折扣时为零
func (i *CartItem) TotalDiscountItemPrice() Money {
	if !i.Product.HasDiscount() {
		return Money{}
	}
	return i.Product.DiscountPrice.Times(i.Quantity)
}

// AmountSaved 折扣节省金额
func (i *CartItem) AmountSaved() Money {
	if !i.Product.HasDiscount() {
		return Money{}
	}
	return i.TotalItemPrice().Minus(i.TotalDiscountItemPrice())
}

// FinalPrice 实际小计
func (i *CartItem) FinalPrice() Money {
	if i.Product.HasDiscount() {
		return i.TotalDiscountItemPrice()
	}
	return i.TotalItemPrice()
}
