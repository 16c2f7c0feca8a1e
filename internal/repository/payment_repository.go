package repository

import (
	"errors"
	"strings"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.PaymentDetails) error
	GetByID(id uint) (*models.PaymentDetails, error)
	GetByChargeID(chargeID string) (*models.PaymentDetails, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付记录仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.PaymentDetails) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.PaymentDetails, error) {
	var payment models.PaymentDetails
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByChargeID 根据 Stripe charge/payment intent ID 获取支付记录
func (r *GormPaymentRepository) GetByChargeID(chargeID string) (*models.PaymentDetails, error) {
	var payment models.PaymentDetails
	if err := r.db.Where("stripe_charge_id = ?", strings.TrimSpace(chargeID)).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
