package service

import (
	"errors"
	"testing"

	"github.com/ecommapi/internal/models"
)

func TestValidateCouponDefinition(t *testing.T) {
	cases := []struct {
		amount, min string
		want        error
	}{
		{amount: "10", min: "20", want: nil},
		{amount: "10", min: "10", want: ErrInvalidCouponConfig},
		{amount: "25", min: "20", want: ErrInvalidCouponConfig},
		{amount: "-1", min: "20", want: ErrInvalidCouponAmount},
	}
	for _, tc := range cases {
		err := ValidateCouponDefinition(models.NewMoney(tc.amount), models.NewMoney(tc.min))
		if !errors.Is(err, tc.want) {
			t.Fatalf("amount=%s min=%s: expected %v, got %v", tc.amount, tc.min, tc.want, err)
		}
	}
}

func TestCouponDefinitionCheckedOnCreateAndUpdate(t *testing.T) {
	f := newFixture(t)

	_, err := f.coupons.Create(CouponInput{Code: "BAD", Amount: models.NewMoney("30"), MinOrderTotal: models.NewMoney("20"), IsActive: true})
	if !errors.Is(err, ErrInvalidCouponConfig) {
		t.Fatalf("expected invalid definition on create, got %v", err)
	}
	if _, err := f.coupons.Create(CouponInput{Code: "LOW", Amount: models.NewMoney("1"), MinOrderTotal: models.NewMoney("5")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected min_order_total floor to apply, got %v", err)
	}

	coupon := f.newCoupon(t, "GOOD", "10", "20")
	_, err = f.coupons.Update(coupon.ID, CouponInput{Code: "GOOD", Amount: models.NewMoney("20"), MinOrderTotal: models.NewMoney("20"), IsActive: true})
	if !errors.Is(err, ErrInvalidCouponConfig) {
		t.Fatalf("expected invalid definition on update, got %v", err)
	}
	stored, err := f.coupons.Get(coupon.ID)
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if stored.Amount.String() != "10.00" {
		t.Fatalf("rejected update must not persist, got %s", stored.Amount)
	}

	if _, err := f.coupons.Create(CouponInput{Code: "GOOD", Amount: models.NewMoney("5"), MinOrderTotal: models.NewMoney("20")}); !errors.Is(err, ErrCouponCodeTaken) {
		t.Fatalf("expected duplicate code conflict, got %v", err)
	}
}

func TestValidateApplicability(t *testing.T) {
	f := newFixture(t)
	f.newCoupon(t, "TEN", "10", "20")

	if _, err := f.coupons.ValidateApplicability(models.NewMoney("19.99"), "TEN"); !errors.Is(err, ErrCouponBelowThreshold) {
		t.Fatalf("expected threshold error, got %v", err)
	}
	coupon, err := f.coupons.ValidateApplicability(models.NewMoney("20"), "TEN")
	if err != nil || coupon.Code != "TEN" {
		t.Fatalf("expected coupon at the threshold, coupon=%+v err=%v", coupon, err)
	}
	if _, err := f.coupons.ValidateApplicability(models.NewMoney("100"), "NOPE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected unknown code, got %v", err)
	}
}

func TestDeleteCouponReferencedByOrder(t *testing.T) {
	f := newFixture(t)
	buyer, address := f.newCustomer(t, "alice")
	product := f.newProduct(t, "bag", "30.00", 5)
	coupon := f.newCoupon(t, "TEN", "10", "20")
	cart := f.cartWith(t, buyer, product, 1)
	if _, err := f.orders.CreateOrder(buyer, cart.ID, CreateOrderInput{AddressID: address.ID, CouponCode: "TEN"}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := f.coupons.Delete(coupon.ID); !errors.Is(err, ErrCouponInUse) {
		t.Fatalf("expected referenced coupon to be kept, got %v", err)
	}
	unused := f.newCoupon(t, "FIVE", "5", "20")
	if err := f.coupons.Delete(unused.ID); err != nil {
		t.Fatalf("delete unused coupon failed: %v", err)
	}
}
