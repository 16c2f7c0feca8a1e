package service

import (
	"errors"
	"testing"

	"github.com/ecommapi/internal/config"
)

func TestInventoryLedgerRejectsNonPositiveQuantities(t *testing.T) {
	f := newFixture(t)
	product := f.newProduct(t, "pan", "20.00", 5)
	inventoryID := product.InventoryID

	ops := map[string]func(uint, int) error{
		"reserve":   f.ledger.Reserve,
		"decrement": f.ledger.Decrement,
		"restock":   f.ledger.Restock,
		"finalize":  f.ledger.FinalizeSale,
	}
	for name, op := range ops {
		for _, qty := range []int{0, -1} {
			if err := op(inventoryID, qty); !errors.Is(err, ErrInvalidQuantity) {
				t.Fatalf("%s(%d): expected invalid quantity, got %v", name, qty, err)
			}
		}
	}
	if inv := f.inventoryOf(t, product); inv.Quantity != 5 || inv.Sold != 0 {
		t.Fatalf("inventory must be untouched, got %+v", inv)
	}
}

func TestInventoryLedgerReserveDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	product := f.newProduct(t, "pot", "25.00", 2)

	if err := f.ledger.Reserve(product.InventoryID, 2); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := f.ledger.Reserve(product.InventoryID, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := f.ledger.Decrement(product.InventoryID, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected conditional decrement to refuse, got %v", err)
	}
	if inv := f.inventoryOf(t, product); inv.Quantity != 2 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
	if err := f.ledger.Reserve(404, 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected unknown inventory, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true}
	cases := map[string]bool{
		"Secret123": true,
		"Sh0rt":     false,
		"secret123": false,
		"SECRET123": false,
		"SecretABC": false,
	}
	for password, ok := range cases {
		err := validatePassword(policy, password)
		if ok && err != nil {
			t.Fatalf("%q: unexpected error %v", password, err)
		}
		if !ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", password, err)
		}
	}
}
