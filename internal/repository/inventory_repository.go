package repository

import (
	"errors"
	"time"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository 库存数据访问接口
type InventoryRepository interface {
	GetByID(id uint) (*models.Inventory, error)
	GetForUpdate(id uint) (*models.Inventory, error)
	Create(inventory *models.Inventory) error
	SetQuantity(id uint, quantity int) error
	Decrement(id uint, quantity int) (bool, error)
	Restock(id uint, quantity int) error
	FinalizeSale(id uint, quantity int) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormInventoryRepository
}

// GormInventoryRepository GORM 实现
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓库
func NewInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryRepository) WithTx(tx *gorm.DB) *GormInventoryRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryRepository{db: tx}
}

// GetByID 根据 ID 获取库存
func (r *GormInventoryRepository) GetByID(id uint) (*models.Inventory, error) {
	var inventory models.Inventory
	if err := r.db.First(&inventory, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inventory, nil
}

// GetForUpdate 加行锁读取库存（postgres 生效，sqlite 依赖库级写锁）
func (r *GormInventoryRepository) GetForUpdate(id uint) (*models.Inventory, error) {
	var inventory models.Inventory
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inventory, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inventory, nil
}

// Create 创建库存
func (r *GormInventoryRepository) Create(inventory *models.Inventory) error {
	return r.db.Create(inventory).Error
}

// SetQuantity 直接设置可售数量
func (r *GormInventoryRepository) SetQuantity(id uint, quantity int) error {
	return r.db.Model(&models.Inventory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}).Error
}

// Decrement 条件扣减可售数量，库存不足时返回 false
func (r *GormInventoryRepository) Decrement(id uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.Inventory{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Restock 回补可售数量
func (r *GormInventoryRepository) Restock(id uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Inventory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", quantity),
		"updated_at": time.Now(),
	}).Error
}

// FinalizeSale 累加已售数量
func (r *GormInventoryRepository) FinalizeSale(id uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Inventory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"sold":       gorm.Expr("sold + ?", quantity),
		"updated_at": time.Now(),
	}).Error
}

// Delete 删除库存
func (r *GormInventoryRepository) Delete(id uint) error {
	return r.db.Delete(&models.Inventory{}, id).Error
}
