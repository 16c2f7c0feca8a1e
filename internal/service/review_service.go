package service

import (
	"context"
	"strings"

	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"
)

// CreateReviewInput 创建评价输入
type CreateReviewInput struct {
	ProductID   uint    `json:"product_id" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// UpdateReviewInput 更新评价输入
type UpdateReviewInput struct {
	Description string  `json:"description" validate:"required"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// ReviewService 商品评价服务
type ReviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService 创建评价服务
func NewReviewService(repo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{repo: repo, productRepo: productRepo}
}

// List 评价列表
func (s *ReviewService) List(filter repository.ReviewListFilter) ([]models.ProductReview, int64, error) {
	return s.repo.List(filter)
}

// Get 获取评价
func (s *ReviewService) Get(id uint) (*models.ProductReview, error) {
	review, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// Create 以当前用户身份发表评价
func (s *ReviewService) Create(ctx context.Context, actor Actor, input CreateReviewInput) (*models.ProductReview, error) {
	input.Description = strings.TrimSpace(input.Description)
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	review := &models.ProductReview{
		UserID:      actor.UserID,
		ProductID:   product.ID,
		Description: input.Description,
		Rating:      input.Rating,
	}
	if err := s.repo.Create(review); err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, product.ID)
	return s.Get(review.ID)
}

// Update 修改评价，仅作者本人可操作
func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, input UpdateReviewInput) (*models.ProductReview, error) {
	input.Description = strings.TrimSpace(input.Description)
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	review, err := s.findOwnReview(actor, id)
	if err != nil {
		return nil, err
	}
	review.Description = input.Description
	review.Rating = input.Rating
	if err := s.repo.Update(review); err != nil {
		return nil, err
	}
	s.invalidateProduct(ctx, review.ProductID)
	return review, nil
}

// Delete 删除评价，仅作者本人可操作
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	review, err := s.findOwnReview(actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(review.ID); err != nil {
		return err
	}
	s.invalidateProduct(ctx, review.ProductID)
	return nil
}

func (s *ReviewService) findOwnReview(actor Actor, id uint) (*models.ProductReview, error) {
	review, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	return review, nil
}

// 平均评分随评价变化，清除商品详情缓存
func (s *ReviewService) invalidateProduct(ctx context.Context, productID uint) {
	if err := cache.DelProduct(ctx, productID); err != nil {
		logger.Warnw("product_cache_invalidate_failed", "product_id", productID, "error", err)
	}
}
