package service

import (
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"

	"gorm.io/gorm"
)

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1"`
}

// UpdateCartItemInput 修改购物车项输入，数量为 0 表示移除
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	ledger      *InventoryLedger
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, ledger *InventoryLedger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		ledger:      ledger,
	}
}

// Create 为用户创建一个新购物车，同一用户可同时持有多个
func (s *CartService) Create(actor Actor) (*models.Cart, error) {
	cart := &models.Cart{UserID: actor.UserID}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// List 购物车列表，超级用户可查看全部
func (s *CartService) List(actor Actor, page, pageSize int) ([]models.Cart, int64, error) {
	return s.cartRepo.List(repository.CartListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   actor.scopeUserID(),
	})
}

// Get 获取购物车详情
func (s *CartService) Get(actor Actor, cartID uint) (*models.Cart, error) {
	return s.findCart(s.cartRepo, actor, cartID)
}

// Delete 删除购物车及其购物车项
func (s *CartService) Delete(actor Actor, cartID uint) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := s.findCart(cartRepo, actor, cartID)
		if err != nil {
			return err
		}
		return cartRepo.Delete(cart.ID)
	})
}

// AddItem 加入商品，已存在时合并数量，按合并后的数量校验库存
func (s *CartService) AddItem(actor Actor, cartID uint, input AddCartItemInput) (*models.CartItem, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	var result *models.CartItem
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		cart, err := s.findCart(cartRepo, actor, cartID)
		if err != nil {
			return err
		}
		product, err := s.productRepo.WithTx(tx).GetByID(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}

		existing, err := cartRepo.GetItemByProduct(cart.ID, product.ID)
		if err != nil {
			return err
		}
		combined := input.Quantity
		if existing != nil {
			combined += existing.Quantity
		}
		if err := ledger.Reserve(product.InventoryID, combined); err != nil {
			return err
		}

		if existing != nil {
			if err := cartRepo.UpdateItemQuantity(existing.ID, combined); err != nil {
				return err
			}
			existing.Quantity = combined
			result = existing
		} else {
			item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: combined}
			if err := cartRepo.CreateItem(item); err != nil {
				return err
			}
			result = item
		}
		result.Product = product
		return cartRepo.Touch(cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItem 覆盖购物车项数量；数量为 0 时删除该项并返回 nil
func (s *CartService) UpdateItem(actor Actor, cartID, itemID uint, input UpdateCartItemInput) (*models.CartItem, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	var result *models.CartItem
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := s.findCart(cartRepo, actor, cartID)
		if err != nil {
			return err
		}
		item, err := cartRepo.GetItem(cart.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrCartItemNotFound
		}
		if input.Quantity == 0 {
			if err := cartRepo.DeleteItem(item.ID); err != nil {
				return err
			}
			return cartRepo.Touch(cart.ID)
		}
		if item.Product == nil {
			return ErrProductNotFound
		}
		if err := s.ledger.WithTx(tx).Reserve(item.Product.InventoryID, input.Quantity); err != nil {
			return err
		}
		if err := cartRepo.UpdateItemQuantity(item.ID, input.Quantity); err != nil {
			return err
		}
		item.Quantity = input.Quantity
		result = item
		return cartRepo.Touch(cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteItem 移除购物车项
func (s *CartService) DeleteItem(actor Actor, cartID, itemID uint) error {
	_, err := s.UpdateItem(actor, cartID, itemID, UpdateCartItemInput{Quantity: 0})
	return err
}

func (s *CartService) findCart(repo repository.CartRepository, actor Actor, cartID uint) (*models.Cart, error) {
	return findOwned(actor,
		func() (*models.Cart, error) { return repo.GetByID(cartID) },
		func(c *models.Cart) uint { return c.UserID },
		ErrCartNotFound,
	)
}
