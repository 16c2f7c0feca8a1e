package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ecommapi/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, name, price string, quantity int) *models.Product {
	t.Helper()
	inventory := models.Inventory{Quantity: quantity}
	if err := db.Create(&inventory).Error; err != nil {
		t.Fatalf("create inventory failed: %v", err)
	}
	product := models.Product{Name: name, Price: models.NewMoney(price), InventoryID: inventory.ID}
	if err := NewProductRepository(db).Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func TestInventoryDecrementIsConditional(t *testing.T) {
	db := openTestDB(t)
	product := createTestProduct(t, db, "mug", "10.00", 5)
	repo := NewInventoryRepository(db)

	ok, err := repo.Decrement(product.InventoryID, 3)
	if err != nil || !ok {
		t.Fatalf("expected first decrement to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.Decrement(product.InventoryID, 3)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if ok {
		t.Fatalf("expected second decrement to be rejected")
	}

	inv, _ := repo.GetByID(product.InventoryID)
	if inv.Quantity != 2 || inv.Sold != 0 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}

	if err := repo.Restock(product.InventoryID, 3); err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if err := repo.FinalizeSale(product.InventoryID, 4); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	inv, _ = repo.GetByID(product.InventoryID)
	if inv.Quantity != 5 || inv.Sold != 4 {
		t.Fatalf("unexpected inventory after restock/finalize: %+v", inv)
	}
}

func TestOrderMarkPaidOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	product := createTestProduct(t, db, "lamp", "12.50", 10)
	order := models.Order{
		OrderNo: "TEST-1",
		UserID:  1,
		Items:   []models.OrderItem{{ProductID: product.ID, Quantity: 2, UnitPrice: product.Price}},
	}
	repo := NewOrderRepository(db)
	if err := repo.Create(&order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	first, err := repo.MarkPaid(order.ID, 7)
	if err != nil || !first {
		t.Fatalf("expected first MarkPaid to apply, ok=%v err=%v", first, err)
	}
	second, err := repo.MarkPaid(order.ID, 8)
	if err != nil || second {
		t.Fatalf("expected second MarkPaid to be a no-op, ok=%v err=%v", second, err)
	}

	loaded, err := repo.GetByID(order.ID)
	if err != nil || loaded == nil {
		t.Fatalf("load order failed: %v", err)
	}
	if !loaded.OrderAccepted || !loaded.PaymentAccepted || loaded.PaymentID == nil || *loaded.PaymentID != 7 {
		t.Fatalf("unexpected order flags: %+v", loaded)
	}
	if loaded.Total.String() != "25.00" {
		t.Fatalf("unexpected total: %s", loaded.Total)
	}

	updated, err := repo.UpdateAddressAndCoupon(order.ID, 1, nil)
	if err != nil || updated {
		t.Fatalf("accepted order must not be updated, ok=%v err=%v", updated, err)
	}
}

func TestProductListFilters(t *testing.T) {
	db := openTestDB(t)
	books, _ := NewCategoryRepository(db).FindOrCreateByName("Books")
	cheap := createTestProduct(t, db, "Paperback", "8.00", 3)
	cheap.CategoryID = &books.ID
	if err := NewProductRepository(db).Update(cheap); err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	soldOut := createTestProduct(t, db, "Hardcover", "30.00", 0)
	discounted := createTestProduct(t, db, "Poster", "20.00", 9)
	price := models.NewMoney("15.00")
	if err := NewProductRepository(db).UpdateDiscount(discounted.ID, &price); err != nil {
		t.Fatalf("update discount failed: %v", err)
	}
	if err := db.Create(&models.ProductReview{UserID: 1, ProductID: discounted.ID, Description: "ok", Rating: 4}).Error; err != nil {
		t.Fatalf("create review failed: %v", err)
	}

	repo := NewProductRepository(db)
	list, total, err := repo.List(ProductListFilter{HideOutOfStock: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expected sold out product hidden, got %d", total)
	}
	for _, p := range list {
		if p.ID == soldOut.ID {
			t.Fatalf("sold out product should be hidden")
		}
	}

	list, _, _ = repo.List(ProductListFilter{CategoryNames: []string{"books"}})
	if len(list) != 1 || list[0].ID != cheap.ID {
		t.Fatalf("category filter mismatch: %+v", list)
	}

	yes := true
	list, _, _ = repo.List(ProductListFilter{Discounted: &yes})
	if len(list) != 1 || list[0].ID != discounted.ID {
		t.Fatalf("discounted filter mismatch: %+v", list)
	}
	if list[0].AverageRating == nil || *list[0].AverageRating != 4 {
		t.Fatalf("expected average rating 4, got %v", list[0].AverageRating)
	}

	gt := decimal.NewFromInt(10)
	list, _, _ = repo.List(ProductListFilter{PriceGT: &gt, Uncategorized: true})
	if len(list) != 2 {
		t.Fatalf("expected two uncategorized products above 10, got %d", len(list))
	}

	rating := 3.5
	list, _, _ = repo.List(ProductListFilter{RatingGT: &rating})
	if len(list) != 1 || list[0].ID != discounted.ID {
		t.Fatalf("rating filter mismatch: %+v", list)
	}
}

func TestAddressOwnershipAndOrphanCleanup(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	addresses := NewAddressRepository(db)

	owner := models.User{Username: "alice", PasswordHash: "x", IsActive: true}
	other := models.User{Username: "bob", PasswordHash: "x", IsActive: true}
	if err := users.Create(&owner); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := users.Create(&other); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	home := models.UserAddress{Address1: "1 Main St", Country: "US", City: "Springfield", PostalCode: "12345"}
	if err := addresses.FindOrCreate(&home); err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	profile := models.UserProfile{UserID: owner.ID, Addresses: []models.UserAddress{home}}
	if err := users.CreateProfile(&profile); err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	got, err := addresses.GetOwnedByUser(home.ID, owner.ID)
	if err != nil || got == nil {
		t.Fatalf("expected owner to see address, err=%v", err)
	}
	got, err = addresses.GetOwnedByUser(home.ID, other.ID)
	if err != nil || got != nil {
		t.Fatalf("expected other user to not own address, got=%v err=%v", got, err)
	}

	if err := users.ReplaceProfileAddresses(&profile, []models.UserAddress{}); err != nil {
		t.Fatalf("replace addresses failed: %v", err)
	}
	removed, err := addresses.DeleteOrphans()
	if err != nil || removed != 1 {
		t.Fatalf("expected one orphan removed, removed=%d err=%v", removed, err)
	}
}
