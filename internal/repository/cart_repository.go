package repository

import (
	"errors"
	"time"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	Create(cart *models.Cart) error
	GetByID(id uint) (*models.Cart, error)
	List(filter CartListFilter) ([]models.Cart, int64, error)
	GetItem(cartID, itemID uint) (*models.CartItem, error)
	GetItemByProduct(cartID, productID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(itemID uint) error
	DeleteItemsByProduct(productID uint) (int64, error)
	Delete(cartID uint) error
	Touch(cartID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Omit("Items").Create(cart).Error
}

// GetByID 获取购物车及其商品、库存
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id asc") }).
		Preload("Items.Product").
		Preload("Items.Product.Inventory").
		First(&cart, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// List 购物车列表
func (r *GormCartRepository) List(filter CartListFilter) ([]models.Cart, int64, error) {
	query := r.db.Model(&models.Cart{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var carts []models.Cart
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items.Product").Order("updated_at desc").Find(&carts).Error; err != nil {
		return nil, 0, err
	}
	return carts, total, nil
}

// GetItem 获取购物车内指定项
func (r *GormCartRepository) GetItem(cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Preload("Product.Inventory").Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemByProduct 获取购物车内指定商品的项
func (r *GormCartRepository) GetItemByProduct(cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Omit("Product").Create(item).Error
}

// UpdateItemQuantity 覆盖购物车项数量
func (r *GormCartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.CartItem{}, itemID).Error
}

// DeleteItemsByProduct 删除所有购物车中指向该商品的项
func (r *GormCartRepository) DeleteItemsByProduct(productID uint) (int64, error) {
	result := r.db.Where("product_id = ?", productID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// Delete 删除购物车及其全部项
func (r *GormCartRepository) Delete(cartID uint) error {
	if err := r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Cart{}, cartID).Error
}

// Touch 刷新购物车更新时间
func (r *GormCartRepository) Touch(cartID uint) error {
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}
