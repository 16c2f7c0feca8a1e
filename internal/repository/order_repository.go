package repository

import (
	"errors"
	"time"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetForUpdate(id uint) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateAddressAndCoupon(id uint, addressID uint, couponID *uint) (bool, error)
	MarkPaid(id uint, paymentID uint) (bool, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Items.Product").
		Preload("Address").
		Preload("Coupon").
		Preload("Payment")
}

// Create 创建订单及订单项
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Omit("User", "Address", "Coupon", "Payment").Create(order).Error
}

// GetByID 获取订单详情
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	order.FillTotals()
	return &order, nil
}

// GetForUpdate 加行锁读取订单及其订单项
func (r *GormOrderRepository) GetForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var items []models.OrderItem
	if err := r.db.Preload("Product").Where("order_id = ?", id).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	if order.CouponID != nil {
		var coupon models.Coupon
		if err := r.db.First(&coupon, *order.CouponID).Error; err == nil {
			order.Coupon = &coupon
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	order.FillTotals()
	return &order, nil
}

// List 订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := r.withDetails(query).Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].FillTotals()
	}
	return orders, total, nil
}

// UpdateAddressAndCoupon 更新未接单订单的地址与优惠券，订单已接单时返回 false
func (r *GormOrderRepository) UpdateAddressAndCoupon(id uint, addressID uint, couponID *uint) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND order_accepted = ?", id, false).
		Updates(map[string]interface{}{
			"address_id": addressID,
			"coupon_id":  couponID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkPaid 条件标记订单已支付，仅在未支付时生效
func (r *GormOrderRepository) MarkPaid(id uint, paymentID uint) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_accepted = ?", id, false).
		Updates(map[string]interface{}{
			"order_accepted":   true,
			"payment_accepted": true,
			"payment_id":       paymentID,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete 删除订单及其订单项
func (r *GormOrderRepository) Delete(id uint) error {
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Order{}, id).Error
}
