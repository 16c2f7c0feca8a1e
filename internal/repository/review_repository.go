package repository

import (
	"errors"
	"strings"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 商品评价数据访问接口
type ReviewRepository interface {
	GetByID(id uint) (*models.ProductReview, error)
	List(filter ReviewListFilter) ([]models.ProductReview, int64, error)
	Create(review *models.ProductReview) error
	Update(review *models.ProductReview) error
	Delete(id uint) error
	DeleteByProduct(productID uint) error
	WithTx(tx *gorm.DB) *GormReviewRepository
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// GetByID 根据 ID 获取评价
func (r *GormReviewRepository) GetByID(id uint) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.db.Preload("User").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// List 评价列表
func (r *GormReviewRepository) List(filter ReviewListFilter) ([]models.ProductReview, int64, error) {
	query := r.db.Model(&models.ProductReview{})
	if filter.ProductID != 0 {
		query = query.Where("product_reviews.product_id = ?", filter.ProductID)
	}
	if name := strings.TrimSpace(filter.ProductName); name != "" {
		query = query.Joins("JOIN products ON products.id = product_reviews.product_id").
			Where("products.name = ?", name)
	}
	if username := strings.TrimSpace(filter.Username); username != "" {
		query = query.Joins("JOIN users ON users.id = product_reviews.user_id").
			Where("users.username = ?", username)
	}
	if filter.Rating != nil {
		query = query.Where("product_reviews.rating = ?", *filter.Rating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.ProductReview
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("User").Order("product_reviews.created_at desc").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Create 创建评价
func (r *GormReviewRepository) Create(review *models.ProductReview) error {
	return r.db.Omit("User", "Product").Create(review).Error
}

// Update 更新评价内容与评分
func (r *GormReviewRepository) Update(review *models.ProductReview) error {
	return r.db.Model(review).Select("description", "rating", "updated_at").Updates(review).Error
}

// Delete 删除评价
func (r *GormReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.ProductReview{}, id).Error
}

// DeleteByProduct 删除商品的全部评价
func (r *GormReviewRepository) DeleteByProduct(productID uint) error {
	return r.db.Where("product_id = ?", productID).Delete(&models.ProductReview{}).Error
}
