package repository

import "github.com/shopspring/decimal"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page           int
	PageSize       int
	Search         string
	CategoryNames  []string
	Uncategorized  bool
	Price          *decimal.Decimal
	PriceGT        *decimal.Decimal
	PriceLT        *decimal.Decimal
	Discounted     *bool
	Rating         *float64
	RatingGT       *float64
	RatingLT       *float64
	HideOutOfStock bool
}

// ReviewListFilter 查询评价列表的过滤条件
type ReviewListFilter struct {
	Page        int
	PageSize    int
	ProductID   uint
	ProductName string
	Username    string
	Rating      *float64
}

// OrderListFilter 查询订单列表的过滤条件，UserID 为 0 时不限用户
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
}

// CartListFilter 查询购物车列表的过滤条件，UserID 为 0 时不限用户
type CartListFilter struct {
	Page     int
	PageSize int
	UserID   uint
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string
}
