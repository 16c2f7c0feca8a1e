package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/payment/stripe"
	"github.com/ecommapi/internal/queue"
	"github.com/ecommapi/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sentMail struct {
	kind    string
	to      string
	orderID uint
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block chan struct{}
}

func (m *fakeMailer) SendOrderPending(to string, orderID uint) error {
	return m.record("pending", to, orderID)
}

func (m *fakeMailer) SendPaymentConfirmed(to string, orderID uint) error {
	return m.record("confirmed", to, orderID)
}

func (m *fakeMailer) record(kind, to string, orderID uint) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, orderID: orderID})
	return nil
}

// sentCount 等待后台通知发送完毕后计数
func (f *fixture) sentCount(kind string) int {
	f.notifier.Wait()
	return f.mailer.count(kind)
}

func (m *fakeMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	event      *stripe.Event
	verifyErr  error
	intent     *stripe.PaymentIntent
	intentErr  error
	sessionErr error
	sessions   []stripe.CheckoutInput
}

func (g *fakeGateway) PublishableKey() string { return "pk_test_123" }

func (g *fakeGateway) Currency() string { return "usd" }

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	g.sessions = append(g.sessions, input)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *fakeGateway) RetrievePaymentIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	if g.intent != nil {
		return g.intent, nil
	}
	return &stripe.PaymentIntent{ID: id, ChargeID: "ch_" + id}, nil
}

func (g *fakeGateway) VerifyWebhook(_ string, _ []byte, _ time.Time) (*stripe.Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

type fixture struct {
	db       *gorm.DB
	metrics  *metrics.Metrics
	mailer   *fakeMailer
	notifier *NotificationService
	gateway  *fakeGateway
	repos    fixtureRepos
	ledger   *InventoryLedger
	coupons  *CouponService
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	accounts *AccountService
	products *ProductService
	reviews  *ReviewService
}

type fixtureRepos struct {
	users     *repository.GormUserRepository
	addresses *repository.GormAddressRepository
	inventory *repository.GormInventoryRepository
	products  *repository.GormProductRepository
	carts     *repository.GormCartRepository
	orders    *repository.GormOrderRepository
	coupons   *repository.GormCouponRepository
	payments  *repository.GormPaymentRepository
	reviews   *repository.GormReviewRepository
	category  *repository.GormCategoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}

	f := &fixture{
		db:      db,
		metrics: metrics.New(),
		mailer:  &fakeMailer{},
		gateway: &fakeGateway{},
		repos: fixtureRepos{
			users:     repository.NewUserRepository(db),
			addresses: repository.NewAddressRepository(db),
			inventory: repository.NewInventoryRepository(db),
			products:  repository.NewProductRepository(db),
			carts:     repository.NewCartRepository(db),
			orders:    repository.NewOrderRepository(db),
			coupons:   repository.NewCouponRepository(db),
			payments:  repository.NewPaymentRepository(db),
			reviews:   repository.NewReviewRepository(db),
			category:  repository.NewCategoryRepository(db),
		},
	}
	queueClient, _ := queue.NewClient(&config.QueueConfig{Enabled: false})
	notifier := NewNotificationService(queueClient, f.mailer, f.repos.users, f.metrics)
	f.notifier = notifier
	t.Cleanup(func() { _ = notifier.Wait() })

	f.ledger = NewInventoryLedger(f.repos.inventory)
	f.coupons = NewCouponService(f.repos.coupons)
	f.carts = NewCartService(f.repos.carts, f.repos.products, f.ledger)
	f.orders = NewOrderService(f.repos.orders, f.repos.carts, f.repos.addresses, f.repos.payments, f.ledger, f.coupons, notifier, f.metrics)
	f.payments = NewPaymentService(f.gateway, f.repos.orders, f.orders, f.metrics)
	f.accounts = NewAccountService(cfg, f.repos.users, f.repos.addresses)
	f.products = NewProductService(f.repos.products, f.repos.inventory, f.repos.category, f.repos.reviews, f.repos.carts, 0)
	f.reviews = NewReviewService(f.repos.reviews, f.repos.products)
	return f
}

// newCustomer 创建带资料与地址的普通用户
func (f *fixture) newCustomer(t *testing.T, username string) (Actor, *models.UserAddress) {
	t.Helper()
	user, err := f.accounts.Register(RegisterInput{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "Secret123",
		RepeatPassword: "Secret123",
		PhoneNumber:    "+1 555 0100",
		Birthday:       "1990-01-02",
		Address: AddressInput{
			Address1:   "1 " + username + " street",
			Country:    "US",
			City:       "Springfield",
			PostalCode: "12345",
		},
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}
	address := user.Profile.Addresses[0]
	return Actor{UserID: user.ID}, &address
}

func (f *fixture) newProduct(t *testing.T, name, price string, quantity int) *models.Product {
	t.Helper()
	product, err := f.products.Create(ProductInput{Name: name, Price: models.NewMoney(price), Inventory: quantity})
	if err != nil {
		t.Fatalf("create product %s failed: %v", name, err)
	}
	return product
}

func (f *fixture) newCoupon(t *testing.T, code, amount, minTotal string) *models.Coupon {
	t.Helper()
	coupon, err := f.coupons.Create(CouponInput{
		Code:          code,
		Amount:        models.NewMoney(amount),
		MinOrderTotal: models.NewMoney(minTotal),
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("create coupon %s failed: %v", code, err)
	}
	return coupon
}

// cartWith 创建购物车并加入一个商品
func (f *fixture) cartWith(t *testing.T, actor Actor, product *models.Product, quantity int) *models.Cart {
	t.Helper()
	cart, err := f.carts.Create(actor)
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	if _, err := f.carts.AddItem(actor, cart.ID, AddCartItemInput{ProductID: product.ID, Quantity: quantity}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	return cart
}

func (f *fixture) inventoryOf(t *testing.T, product *models.Product) models.Inventory {
	t.Helper()
	inv, err := f.repos.inventory.GetByID(product.InventoryID)
	if err != nil || inv == nil {
		t.Fatalf("load inventory failed: %v", err)
	}
	return *inv
}

func (f *fixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
