package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// errAlreadyFulfilled 订单已支付：重复回调，或并发回调在条件更新时先一步完成，用于回滚本次事务
var errAlreadyFulfilled = errors.New("order already fulfilled")

// OrderService 订单生命周期服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	paymentRepo repository.PaymentRepository
	ledger      *InventoryLedger
	coupons     *CouponService
	notifier    *NotificationService
	metrics     *metrics.Metrics
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, addressRepo repository.AddressRepository, paymentRepo repository.PaymentRepository, ledger *InventoryLedger, coupons *CouponService, notifier *NotificationService, m *metrics.Metrics) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		coupons:     coupons,
		notifier:    notifier,
		metrics:     m,
	}
}

// CreateOrderInput 购物车下单输入
type CreateOrderInput struct {
	AddressID  uint   `json:"address_id" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

// UpdateOrderInput 修改订单输入，coupon_code 为空时保留原优惠券
type UpdateOrderInput struct {
	AddressID  uint   `json:"address_id" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

// FulfillInput 支付履约输入
type FulfillInput struct {
	OrderID  uint
	ChargeID string
	Amount   models.Money
}

// CreateOrder 将购物车转换为订单
// 地址、购物车、库存扣减、优惠券与删除购物车在同一事务内完成，通知在提交后发出
func (s *OrderService) CreateOrder(actor Actor, cartID uint, input CreateOrderInput) (*models.Order, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	owner := actor.Strict()
	order := &models.Order{
		OrderNo: generateOrderNo(),
		UserID:  owner.UserID,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		address, err := s.addressRepo.WithTx(tx).GetOwnedByUser(input.AddressID, owner.UserID)
		if err != nil {
			return err
		}
		if address == nil {
			return ErrAddressNotFound
		}
		order.AddressID = &address.ID

		cart, err := findOwned(owner,
			func() (*models.Cart, error) { return cartRepo.GetByID(cartID) },
			func(c *models.Cart) uint { return c.UserID },
			ErrCartNotFound,
		)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		order.Items = make([]models.OrderItem, 0, len(cart.Items))
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.Product == nil {
				return ErrProductNotFound
			}
			if err := ledger.Decrement(item.Product.InventoryID, item.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.EffectivePrice(),
			})
		}

		if code := strings.TrimSpace(input.CouponCode); code != "" {
			coupon, err := s.coupons.WithTx(tx).ValidateApplicability(order.BeforeCouponAmount(), code)
			if err != nil {
				return err
			}
			order.CouponID = &coupon.ID
		}

		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		return cartRepo.Delete(cart.ID)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.metrics.StockRejected()
		}
		return nil, err
	}

	s.metrics.OrderCreated()
	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo, "user_id", order.UserID, "cart_id", cartID)
	s.notifier.NotifyOrderPending(order.ID, order.UserID)
	return s.reload(order.ID)
}

// UpdateOrder 修改未受理订单的地址与优惠券，不改动订单项与库存
func (s *OrderService) UpdateOrder(actor Actor, orderID uint, input UpdateOrderInput) (*models.Order, error) {
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := s.findOrder(orderRepo.GetForUpdate, actor, orderID)
		if err != nil {
			return err
		}
		if order.OrderAccepted {
			return ErrOrderAlreadyAccepted
		}

		address, err := s.addressRepo.WithTx(tx).GetOwnedByUser(input.AddressID, order.UserID)
		if err != nil {
			return err
		}
		if address == nil {
			return ErrAddressNotFound
		}

		couponID := order.CouponID
		if code := strings.TrimSpace(input.CouponCode); code != "" {
			coupon, err := s.coupons.WithTx(tx).ValidateApplicability(order.BeforeCouponAmount(), code)
			if err != nil {
				return err
			}
			couponID = &coupon.ID
		}

		updated, err := orderRepo.UpdateAddressAndCoupon(order.ID, address.ID, couponID)
		if err != nil {
			return err
		}
		if !updated {
			return ErrOrderAlreadyAccepted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(orderID)
}

// DestroyOrder 删除未受理订单，先回补每个订单项的库存
func (s *OrderService) DestroyOrder(actor Actor, orderID uint) error {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		order, err := s.findOrder(orderRepo.GetForUpdate, actor, orderID)
		if err != nil {
			return err
		}
		if order.OrderAccepted {
			return ErrOrderAlreadyAccepted
		}
		for i := range order.Items {
			item := &order.Items[i]
			if item.Product == nil {
				return ErrProductNotFound
			}
			if err := ledger.Restock(item.Product.InventoryID, item.Quantity); err != nil {
				return err
			}
		}
		return orderRepo.Delete(order.ID)
	})
	if err != nil {
		return err
	}
	s.metrics.OrderDestroyed()
	logger.Infow("order_destroyed", "order_id", orderID, "user_id", actor.UserID)
	return nil
}

// FulfillOrder 支付确认后履约，对同一订单幂等
// 返回 applied=false 表示订单此前已支付，本次为重复事件
func (s *OrderService) FulfillOrder(input FulfillInput) (bool, error) {
	if input.OrderID == 0 {
		return false, ErrOrderNotFound
	}
	if strings.TrimSpace(input.ChargeID) == "" {
		return false, validationError("charge_id", "charge id is required")
	}

	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		locked, err := orderRepo.GetForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		order = locked
		if order.PaymentAccepted {
			return errAlreadyFulfilled
		}

		payment := &models.PaymentDetails{
			UserID:         order.UserID,
			StripeChargeID: input.ChargeID,
			Amount:         input.Amount,
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		marked, err := orderRepo.MarkPaid(order.ID, payment.ID)
		if err != nil {
			return err
		}
		if !marked {
			return errAlreadyFulfilled
		}
		for i := range order.Items {
			item := &order.Items[i]
			if item.Product == nil {
				return ErrProductNotFound
			}
			if err := ledger.FinalizeSale(item.Product.InventoryID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyFulfilled) {
		s.metrics.OrderFulfilled(false)
		logger.Infow("order_fulfill_duplicate", "order_id", input.OrderID, "charge_id", input.ChargeID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.metrics.OrderFulfilled(true)
	logger.Infow("order_fulfilled", "order_id", order.ID, "user_id", order.UserID, "charge_id", input.ChargeID, "amount", input.Amount.String())
	s.notifier.NotifyPaymentConfirmed(order.ID, order.UserID)
	return true, nil
}

// List 订单列表，超级用户可查看全部
func (s *OrderService) List(actor Actor, page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   actor.scopeUserID(),
	})
}

// Get 获取订单详情
func (s *OrderService) Get(actor Actor, orderID uint) (*models.Order, error) {
	return s.findOrder(s.orderRepo.GetByID, actor, orderID)
}

func (s *OrderService) findOrder(load func(uint) (*models.Order, error), actor Actor, orderID uint) (*models.Order, error) {
	return findOwned(actor,
		func() (*models.Order, error) { return load(orderID) },
		func(o *models.Order) uint { return o.UserID },
		ErrOrderNotFound,
	)
}

func (s *OrderService) reload(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// generateOrderNo 生成按时间有序的订单号
func generateOrderNo() string {
	return fmt.Sprintf("EC%s", ulid.Make().String())
}
