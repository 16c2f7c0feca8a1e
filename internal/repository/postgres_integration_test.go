//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ecommapi/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库，未配置 DSN 时跳过
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		_ = db.Migrator().DropTable(all[i])
	}
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("auto migrate postgres failed: %v", err)
	}
	return db
}

func TestPostgresConcurrentDecrementNeverOversells(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	product := createTestProduct(t, db, "limited", "30.00", 5)
	repo := NewInventoryRepository(db)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Decrement(product.InventoryID, 1)
			if err != nil {
				t.Errorf("decrement failed: %v", err)
				return
			}
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 5 {
		t.Fatalf("expected exactly 5 successful decrements, got %d", got)
	}
	inv, err := repo.GetByID(product.InventoryID)
	if err != nil || inv.Quantity != 0 {
		t.Fatalf("expected stock to reach zero, inv=%+v err=%v", inv, err)
	}
}

func TestPostgresProductSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	createTestProduct(t, db, "Walnut Table", "649.00", 2)
	createTestProduct(t, db, "Oak Chair", "89.00", 2)

	if got := likeOperator(db); got != "ILIKE" {
		t.Fatalf("postgres should use ILIKE, got %s", got)
	}
	products, total, err := NewProductRepository(db).List(ProductListFilter{Search: "walnut", Page: 1, PageSize: 20})
	if err != nil || total != 1 || products[0].Name != "Walnut Table" {
		t.Fatalf("unexpected search result: total=%d err=%v", total, err)
	}
}
