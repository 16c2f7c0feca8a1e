package main

import (
	"errors"
	"flag"

	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"
	"github.com/ecommapi/internal/service"
)

type seedProduct struct {
	name     string
	price    string
	discount *int
	category string
	stock    int
	summary  string
}

func intPtr(v int) *int { return &v }

var demoProducts = []seedProduct{
	{name: "Desk Lamp", price: "39.90", category: "Lighting", stock: 25, summary: "Adjustable LED desk lamp."},
	{name: "Floor Lamp", price: "119.00", discount: intPtr(15), category: "Lighting", stock: 8, summary: "Arc floor lamp with linen shade."},
	{name: "Oak Chair", price: "89.00", category: "Furniture", stock: 12, summary: "Solid oak dining chair."},
	{name: "Walnut Table", price: "649.00", discount: intPtr(10), category: "Furniture", stock: 3, summary: "Six seat walnut table."},
	{name: "Cast Iron Pan", price: "45.50", category: "Kitchen", stock: 40, summary: "Pre-seasoned 26cm skillet."},
	{name: "Chef Knife", price: "72.00", category: "Kitchen", stock: 0, summary: "Out of stock, visible to staff only."},
}

var demoCoupons = []service.CouponInput{
	{Code: "WELCOME5", Amount: models.NewMoney("5.00"), MinOrderTotal: models.NewMoney("30.00"), IsActive: true},
	{Code: "BIGSPEND50", Amount: models.NewMoney("50.00"), MinOrderTotal: models.NewMoney("500.00"), IsActive: true},
	{Code: "EXPIRED10", Amount: models.NewMoney("10.00"), MinOrderTotal: models.NewMoney("40.00"), IsActive: false},
}

func main() {
	withCoupons := flag.Bool("coupons", true, "同时写入示例优惠券")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns: cfg.Database.Pool.MaxIdleConns,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.DB
	products := service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewInventoryRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewReviewRepository(db),
		repository.NewCartRepository(db),
		0,
	)
	coupons := service.NewCouponService(repository.NewCouponRepository(db))

	var existing int64
	if err := db.Model(&models.Product{}).Count(&existing).Error; err != nil {
		stdLog.Fatalf("Failed to count products: %v", err)
	}
	if existing > 0 {
		logger.Infow("seed_products_skipped", "existing", existing)
	} else {
		for _, item := range demoProducts {
			product, err := products.Create(service.ProductInput{
				Name:             item.name,
				Price:            models.NewMoney(item.price),
				Discount:         item.discount,
				ShortDescription: item.summary,
				Category:         item.category,
				Inventory:        item.stock,
			})
			if err != nil {
				stdLog.Fatalf("Failed to seed product %s: %v", item.name, err)
			}
			logger.Infow("seed_product_created", "product_id", product.ID, "name", product.Name)
		}
	}

	if *withCoupons {
		for _, input := range demoCoupons {
			coupon, err := coupons.Create(input)
			if errors.Is(err, service.ErrCouponCodeTaken) {
				logger.Infow("seed_coupon_exists", "code", input.Code)
				continue
			}
			if err != nil {
				stdLog.Fatalf("Failed to seed coupon %s: %v", input.Code, err)
			}
			logger.Infow("seed_coupon_created", "coupon_id", coupon.ID, "code", coupon.Code)
		}
	}
	logger.Infow("seed_done")
}
