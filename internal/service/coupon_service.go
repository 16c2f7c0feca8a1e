package service

import (
	"strings"

	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"

	"gorm.io/gorm"
)

// CouponInput 创建/更新优惠券输入
type CouponInput struct {
	Code          string       `json:"code" validate:"required,max=50"`
	Amount        models.Money `json:"amount" validate:"gte=0"`
	MinOrderTotal models.Money `json:"min_order_total" validate:"gte=10"`
	IsActive      bool         `json:"is_active"`
}

// CouponService 优惠券服务
type CouponService struct {
	repo repository.CouponRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{repo: repo}
}

// WithTx 绑定事务
func (s *CouponService) WithTx(tx *gorm.DB) *CouponService {
	if tx == nil {
		return s
	}
	return &CouponService{repo: s.repo.WithTx(tx)}
}

// ValidateCouponDefinition 优惠金额必须严格小于最低订单金额
func ValidateCouponDefinition(amount, minOrderTotal models.Money) error {
	if amount.IsNegative() {
		return ErrInvalidCouponAmount
	}
	if minOrderTotal.LessThanOrEqual(amount.Decimal) {
		return ErrInvalidCouponConfig
	}
	return nil
}

// ValidateApplicability 按券码查找启用中的优惠券，并校验订单小计是否达到门槛
func (s *CouponService) ValidateApplicability(subtotal models.Money, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.repo.GetActiveByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if err := checkCouponThreshold(subtotal, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func checkCouponThreshold(subtotal models.Money, coupon *models.Coupon) error {
	if subtotal.LessThan(coupon.MinOrderTotal.Decimal) {
		return ErrCouponBelowThreshold
	}
	return nil
}

// List 优惠券列表
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

// Get 获取优惠券
func (s *CouponService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Create 创建优惠券
func (s *CouponService) Create(input CouponInput) (*models.Coupon, error) {
	if err := s.validateInput(&input, 0); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{
		Code:          input.Code,
		Amount:        input.Amount,
		MinOrderTotal: input.MinOrderTotal,
		IsActive:      input.IsActive,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券，规则与创建一致
func (s *CouponService) Update(id uint, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(&input, id); err != nil {
		return nil, err
	}
	coupon.Code = input.Code
	coupon.Amount = input.Amount
	coupon.MinOrderTotal = input.MinOrderTotal
	coupon.IsActive = input.IsActive
	if err := s.repo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete 删除优惠券，被订单引用时拒绝
func (s *CouponService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	refs, err := s.repo.CountOrderReferences(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrCouponInUse
	}
	return s.repo.Delete(id)
}

func (s *CouponService) validateInput(input *CouponInput, selfID uint) error {
	input.Code = strings.TrimSpace(input.Code)
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := ValidateCouponDefinition(input.Amount, input.MinOrderTotal); err != nil {
		return err
	}
	existing, err := s.repo.GetByCode(input.Code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrCouponCodeTaken
	}
	return nil
}
