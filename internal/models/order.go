package models

import "time"

// Order 订单表
// 金额字段为派生值，由订单项与优惠券实时计算，不落库
type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	OrderNo         string          `gorm:"uniqueIndex;size:32;not null" json:"order_no"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AddressID       *uint           `gorm:"index" json:"address_id"`
	Address         *UserAddress    `gorm:"constraint:OnDelete:SET NULL" json:"address,omitempty"`
	CouponID        *uint           `gorm:"index" json:"coupon_id"`
	Coupon          *Coupon         `gorm:"constraint:OnDelete:SET NULL" json:"coupon,omitempty"`
	PaymentID       *uint           `gorm:"index" json:"payment_id"`
	Payment         *PaymentDetails `gorm:"constraint:OnDelete:SET NULL" json:"payment,omitempty"`
	OrderAccepted   bool            `gorm:"not null;default:false" json:"order_accepted"`
	PaymentAccepted bool            `gorm:"not null;default:false" json:"payment_accepted"`
	BeingDelivered  bool            `gorm:"not null;default:false" json:"being_delivered"`
	Received        bool            `gorm:"not null;default:false" json:"received"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	BeforeCoupon Money `gorm:"-" json:"before_coupon"`
	Total        Money `gorm:"-" json:"total"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// BeforeCouponAmount 优惠前金额
func (o *Order) BeforeCouponAmount() Money {
	var sum Money
	for i := range o.Items {
		sum = sum.Plus(o.Items[i].FinalPrice())
	}
	return sum
}

// TotalAmount 应付金额，优惠券抵扣后不低于 0
func (o *Order) TotalAmount() Money {
	total := o.BeforeCouponAmount()
	if o.Coupon != nil {
		total = total.Minus(o.Coupon.Amount)
	}
	return total.FloorZero()
}

// FillTotals 填充派生金额字段
func (o *Order) FillTotals() {
	o.BeforeCoupon = o.BeforeCouponAmount()
	o.Total = o.TotalAmount()
}

// OrderItem 订单项表，数量与单价在下单时快照
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice Money     `gorm:"type:decimal(9,2);not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// FinalPrice 订单项小计
func (i *OrderItem) FinalPrice() Money {
	return i.UnitPrice.Times(i.Quantity)
}
