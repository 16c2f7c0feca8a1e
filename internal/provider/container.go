package provider

import (
	"fmt"
	"time"

	"github.com/ecommapi/internal/authz"
	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/payment/stripe"
	"github.com/ecommapi/internal/queue"
	"github.com/ecommapi/internal/repository"
	"github.com/ecommapi/internal/service"

	"gorm.io/gorm"
)

// Overrides 替换外部依赖，测试时注入假实现
type Overrides struct {
	Gateway service.StripeGateway
	Mailer  service.OrderMailer
	Metrics *metrics.Metrics
}

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics
	Gateway     service.StripeGateway

	// Repositories
	UserRepo      repository.UserRepository
	AddressRepo   repository.AddressRepository
	CategoryRepo  repository.CategoryRepository
	ProductRepo   repository.ProductRepository
	InventoryRepo repository.InventoryRepository
	ReviewRepo    repository.ReviewRepository
	CartRepo      repository.CartRepository
	CouponRepo    repository.CouponRepository
	OrderRepo     repository.OrderRepository
	PaymentRepo   repository.PaymentRepository
	LoginLogRepo  repository.UserLoginLogRepository

	// Services
	AuthzService        *authz.Service
	AccountService      *service.AccountService
	LoginLogService     *service.UserLoginLogService
	EmailService        *service.EmailService
	NotificationService *service.NotificationService
	InventoryLedger     *service.InventoryLedger
	CouponService       *service.CouponService
	CartService         *service.CartService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	ProductService      *service.ProductService
	CategoryService     *service.CategoryService
	ReviewService       *service.ReviewService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWith(cfg, models.DB, Overrides{})
}

// NewContainerWith 使用指定数据库与外部依赖初始化容器
func NewContainerWith(cfg *config.Config, db *gorm.DB, overrides Overrides) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database is not initialized")
	}

	// 初始化缓存，失败时降级为不缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，失败时通知改为进程内发送
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     overrides.Metrics,
		Gateway:     overrides.Gateway,
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New()
	}
	if c.Gateway == nil {
		c.Gateway = stripe.NewClient(stripeConfig(cfg.Stripe))
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	if err := c.initServices(db, overrides.Mailer); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.InventoryRepo = repository.NewInventoryRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.LoginLogRepo = repository.NewUserLoginLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB, mailer service.OrderMailer) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}
	c.AuthzService = authzService

	c.EmailService = service.NewEmailService(&c.Config.Email)
	if mailer == nil {
		mailer = c.EmailService
	}
	c.NotificationService = service.NewNotificationService(c.QueueClient, mailer, c.UserRepo, c.Metrics)
	c.InventoryLedger = service.NewInventoryLedger(c.InventoryRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.InventoryLedger)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, c.AddressRepo, c.PaymentRepo, c.InventoryLedger, c.CouponService, c.NotificationService, c.Metrics)
	c.PaymentService = service.NewPaymentService(c.Gateway, c.OrderRepo, c.OrderService, c.Metrics)
	c.AccountService = service.NewAccountService(c.Config, c.UserRepo, c.AddressRepo)
	c.LoginLogService = service.NewUserLoginLogService(c.LoginLogRepo, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.InventoryRepo, c.CategoryRepo, c.ReviewRepo, c.CartRepo, time.Duration(c.Config.Redis.ProductTTLSeconds)*time.Second)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.ProductRepo)
	return nil
}

func stripeConfig(cfg config.StripeConfig) stripe.Config {
	return stripe.Config{
		SecretKey:               cfg.SecretKey,
		PublishableKey:          cfg.PublishableKey,
		WebhookSecret:           cfg.WebhookSecret,
		SuccessURL:              cfg.SuccessURL,
		CancelURL:               cfg.CancelURL,
		Currency:                cfg.Currency,
		APIBaseURL:              cfg.APIBaseURL,
		WebhookToleranceSeconds: cfg.WebhookToleranceSeconds,
		Timeout:                 time.Duration(cfg.TimeoutSeconds) * time.Second,
		Breaker: stripe.BreakerConfig{
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			Timeout:      time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		},
	}
}
