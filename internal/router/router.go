package router

import (
	"fmt"
	"strings"

	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/config"
	adminhandlers "github.com/ecommapi/internal/http/handlers/admin"
	publichandlers "github.com/ecommapi/internal/http/handlers/public"
	"github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	if err := shared.RegisterBindingValidations(); err != nil {
		logger.Errorw("router_register_binding_validations_failed", "error", err)
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", cache.Prefix()),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "Too many login attempts, retry in %d seconds.",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	auth := UserJWTAuthMiddleware(c.AccountService)
	optionalAuth := OptionalUserAuthMiddleware(c.AccountService)
	staff := StaffAuthzMiddleware(c.AuthzService)

	apiV1 := r.Group("/api/v1")
	{
		// Stripe 回调，签名校验在服务层完成
		apiV1.POST("/stripe/webhook", publicHandler.StripeWebhook)

		accounts := apiV1.Group("/accounts")
		{
			accounts.POST("/register", publicHandler.Register)
			accounts.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("username")), publicHandler.Login)
			accounts.GET("/users", auth, publicHandler.ListUsers)
			accounts.GET("/users/:id", auth, publicHandler.GetUser)
			accounts.PUT("/users/:id", auth, publicHandler.UpdateUser)
			accounts.GET("/addresses", auth, publicHandler.ListAddresses)
			accounts.GET("/login-logs", auth, publicHandler.ListLoginLogs)
		}

		// 目录读接口对游客开放，员工可看到缺货商品
		catalog := apiV1.Group("")
		catalog.Use(optionalAuth)
		{
			catalog.GET("/products", publicHandler.ListProducts)
			catalog.GET("/products/:id", publicHandler.GetProduct)
			catalog.GET("/categories", publicHandler.ListCategories)
			catalog.GET("/reviews", publicHandler.ListReviews)
			catalog.GET("/reviews/:id", publicHandler.GetReview)
		}

		staffOnly := apiV1.Group("")
		staffOnly.Use(auth, staff)
		{
			staffOnly.POST("/products", adminHandler.CreateProduct)
			staffOnly.PUT("/products/:id", adminHandler.UpdateProduct)
			staffOnly.DELETE("/products/:id", adminHandler.DeleteProduct)
			staffOnly.POST("/products/:id/discount", adminHandler.SetProductDiscount)

			staffOnly.POST("/categories", adminHandler.CreateCategory)
			staffOnly.PUT("/categories/:id", adminHandler.UpdateCategory)
			staffOnly.DELETE("/categories/:id", adminHandler.DeleteCategory)

			staffOnly.GET("/coupons", adminHandler.ListCoupons)
			staffOnly.POST("/coupons", adminHandler.CreateCoupon)
			staffOnly.GET("/coupons/:id", adminHandler.GetCoupon)
			staffOnly.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			staffOnly.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
		}

		user := apiV1.Group("")
		user.Use(auth)
		{
			user.POST("/reviews", publicHandler.CreateReview)
			user.PUT("/reviews/:id", publicHandler.UpdateReview)
			user.DELETE("/reviews/:id", publicHandler.DeleteReview)

			user.GET("/carts", publicHandler.ListCarts)
			user.POST("/carts", publicHandler.CreateCart)
			user.GET("/carts/:id", publicHandler.GetCart)
			user.DELETE("/carts/:id", publicHandler.DeleteCart)
			user.POST("/carts/:id/items", publicHandler.AddCartItem)
			user.PUT("/carts/:id/items/:item_id", publicHandler.UpdateCartItem)
			user.DELETE("/carts/:id/items/:item_id", publicHandler.DeleteCartItem)
			user.POST("/carts/:id/order", publicHandler.CreateOrderFromCart)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/stripe", publicHandler.StripeConfig)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.PUT("/orders/:id", publicHandler.UpdateOrder)
			user.DELETE("/orders/:id", publicHandler.DeleteOrder)
			user.GET("/orders/:id/session", publicHandler.CreateCheckoutSession)
		}
	}

	return r
}
