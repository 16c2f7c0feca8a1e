package service

import (
	"context"
	"strings"
	"time"

	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"

	"gorm.io/gorm"
)

// ProductInput 创建/更新商品输入
// Category 为分类名称，不存在时自动创建；Discount 为折扣百分比，缺省表示无折扣
type ProductInput struct {
	Name             string       `json:"name" validate:"required,max=100"`
	Price            models.Money `json:"price" validate:"gt=0"`
	Discount         *int         `json:"discount" validate:"omitempty,min=0,max=100"`
	Weight           *float64     `json:"weight" validate:"omitempty,gte=0"`
	ShortDescription string       `json:"short_description" validate:"max=1000"`
	LongDescription  string       `json:"long_description"`
	Category         string       `json:"category" validate:"max=50"`
	Inventory        int          `json:"inventory" validate:"min=0"`
}

// ProductService 商品业务服务
type ProductService struct {
	repo          repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	categoryRepo  repository.CategoryRepository
	reviewRepo    repository.ReviewRepository
	cartRepo      repository.CartRepository
	cacheTTL      time.Duration
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, inventoryRepo repository.InventoryRepository, categoryRepo repository.CategoryRepository, reviewRepo repository.ReviewRepository, cartRepo repository.CartRepository, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		repo:          repo,
		inventoryRepo: inventoryRepo,
		categoryRepo:  categoryRepo,
		reviewRepo:    reviewRepo,
		cartRepo:      cartRepo,
		cacheTTL:      cacheTTL,
	}
}

// List 商品列表，非员工看不到无库存商品
func (s *ProductService) List(actor Actor, filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.HideOutOfStock = !canManageCatalog(actor)
	return s.repo.List(filter)
}

// Get 商品详情，优先读缓存
func (s *ProductService) Get(ctx context.Context, actor Actor, id uint) (*models.Product, error) {
	product, hit, err := cache.GetProduct(ctx, id)
	if err != nil {
		logger.Warnw("product_cache_get_failed", "product_id", id, "error", err)
	}
	if !hit || product == nil {
		product, err = s.repo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if err := cache.SetProduct(ctx, product, s.cacheTTL); err != nil {
			logger.Warnw("product_cache_set_failed", "product_id", id, "error", err)
		}
	}
	if !canManageCatalog(actor) && product.Inventory.Quantity <= 0 {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品及其库存
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	var productID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		inventory := &models.Inventory{Quantity: input.Inventory}
		if err := s.inventoryRepo.WithTx(tx).Create(inventory); err != nil {
			return err
		}
		product := &models.Product{InventoryID: inventory.ID}
		if err := s.applyInput(tx, product, input); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(product); err != nil {
			return err
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", productID, "name", input.Name)
	return s.load(productID)
}

// Update 更新商品与库存数量，未提供折扣时清除折扣价
func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if err := s.inventoryRepo.WithTx(tx).SetQuantity(product.InventoryID, input.Inventory); err != nil {
			return err
		}
		if err := s.applyInput(tx, product, input); err != nil {
			return err
		}
		return repo.Update(product)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.load(id)
}

// SetDiscount 按百分比设置折扣价，0 表示取消折扣
func (s *ProductService) SetDiscount(ctx context.Context, id uint, percentage int) (*models.Product, error) {
	if percentage < 0 || percentage > 100 {
		return nil, ErrInvalidDiscount
	}
	product, err := s.load(id)
	if err != nil {
		return nil, err
	}
	var discount *models.Money
	if percentage > 0 {
		price := product.DiscountedBy(percentage)
		discount = &price
	}
	if err := s.repo.UpdateDiscount(id, discount); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.load(id)
}

// Delete 删除商品及其评价、购物车项与库存，已被订单引用时拒绝
// 级联在应用层完成，不依赖数据库外键
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	var cartItemsRemoved int64
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		refs, err := repo.CountOrderItems(id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductInUse
		}
		if err := s.reviewRepo.WithTx(tx).DeleteByProduct(id); err != nil {
			return err
		}
		removed, err := s.cartRepo.WithTx(tx).DeleteItemsByProduct(id)
		if err != nil {
			return err
		}
		cartItemsRemoved = removed
		if err := repo.Delete(id); err != nil {
			return err
		}
		return s.inventoryRepo.WithTx(tx).Delete(product.InventoryID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.Infow("product_deleted", "product_id", id, "cart_items_removed", cartItemsRemoved)
	return nil
}

func (s *ProductService) applyInput(tx *gorm.DB, product *models.Product, input ProductInput) error {
	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.Weight = input.Weight
	product.ShortDescription = input.ShortDescription
	product.LongDescription = input.LongDescription
	product.DiscountPrice = nil
	if input.Discount != nil && *input.Discount > 0 {
		price := product.DiscountedBy(*input.Discount)
		product.DiscountPrice = &price
	}

	product.CategoryID = nil
	product.Category = nil
	if name := strings.TrimSpace(input.Category); name != "" {
		category, err := s.categoryRepo.WithTx(tx).FindOrCreateByName(name)
		if err != nil {
			return err
		}
		product.CategoryID = &category.ID
	}
	return nil
}

func (s *ProductService) load(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) invalidate(ctx context.Context, ids ...uint) {
	if err := cache.DelProduct(ctx, ids...); err != nil {
		logger.Warnw("product_cache_invalidate_failed", "product_ids", ids, "error", err)
	}
}

func canManageCatalog(actor Actor) bool {
	return actor.IsStaff || actor.IsSuperuser
}
