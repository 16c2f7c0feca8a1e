package repository

import (
	"errors"
	"strings"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

const productRatingExpr = "(SELECT AVG(product_reviews.rating) FROM product_reviews WHERE product_reviews.product_id = products.id)"

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	UpdateDiscount(id uint, discount *models.Money) error
	Delete(id uint) error
	CountOrderItems(id uint) (int64, error)
	FillAverageRatings(products []models.Product) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取商品（含分类与库存）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").Preload("Inventory").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	products := []models.Product{product}
	if err := r.FillAverageRatings(products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("products.name "+likeOperator(r.db)+" ?", containsPattern(search))
	}
	if names := lowerAll(filter.CategoryNames); len(names) > 0 {
		query = query.Where("products.category_id IN (?)",
			r.db.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).Select("id").Where("LOWER(name) IN ?", names))
	}
	if filter.Uncategorized {
		query = query.Where("products.category_id IS NULL")
	}
	if filter.Price != nil {
		query = query.Where("products.price = ?", filter.Price.StringFixed(2))
	}
	if filter.PriceGT != nil {
		query = query.Where("products.price > ?", filter.PriceGT.StringFixed(2))
	}
	if filter.PriceLT != nil {
		query = query.Where("products.price < ?", filter.PriceLT.StringFixed(2))
	}
	if filter.Discounted != nil {
		if *filter.Discounted {
			query = query.Where("products.discount_price IS NOT NULL AND products.discount_price <> products.price")
		} else {
			query = query.Where("products.discount_price IS NULL OR products.discount_price = products.price")
		}
	}
	if filter.Rating != nil {
		query = query.Where(productRatingExpr+" = ?", *filter.Rating)
	}
	if filter.RatingGT != nil {
		query = query.Where(productRatingExpr+" > ?", *filter.RatingGT)
	}
	if filter.RatingLT != nil {
		query = query.Where(productRatingExpr+" < ?", *filter.RatingLT)
	}
	if filter.HideOutOfStock {
		query = query.Where("products.inventory_id IN (?)",
			r.db.Session(&gorm.Session{NewDB: true}).Model(&models.Inventory{}).Select("id").Where("quantity > 0"))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Category").Preload("Inventory").Order("products.id asc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	if err := r.FillAverageRatings(products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FillAverageRatings 批量填充平均评分
func (r *GormProductRepository) FillAverageRatings(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	var rows []struct {
		ProductID uint
		Average   float64
	}
	if err := r.db.Model(&models.ProductReview{}).
		Select("product_id, AVG(rating) AS average").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	averages := make(map[uint]float64, len(rows))
	for _, row := range rows {
		averages[row.ProductID] = row.Average
	}
	for i := range products {
		if avg, ok := averages[products[i].ID]; ok {
			value := avg
			products[i].AverageRating = &value
		}
	}
	return nil
}

// Create 创建商品，库存需已创建
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Omit("Category", "Inventory").Create(product).Error
}

// Update 更新商品基础字段
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Model(product).
		Select("name", "price", "discount_price", "weight", "short_description", "long_description", "category_id", "updated_at").
		Omit("Category", "Inventory").
		Updates(product).Error
}

// UpdateDiscount 设置或清除折扣价
func (r *GormProductRepository) UpdateDiscount(id uint, discount *models.Money) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Update("discount_price", discount).Error
}

// CountOrderItems 统计引用该商品的订单项数量
func (r *GormProductRepository) CountOrderItems(id uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}
