package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestEnforcePrincipalStaffMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	staff := Principal{UserID: 2, IsStaff: true}
	customer := Principal{UserID: 3}
	root := Principal{UserID: 1, IsSuperuser: true}

	cases := []struct {
		name string
		who  Principal
		obj  string
		act  string
		want bool
	}{
		{name: "staff creates product", who: staff, obj: "/api/v1/products", act: "post", want: true},
		{name: "staff discounts product", who: staff, obj: "/api/v1/products/42/discount", act: "POST", want: true},
		{name: "staff inherits category delete", who: staff, obj: "/api/v1/categories/9", act: "DELETE", want: true},
		{name: "staff reads coupon", who: staff, obj: "/api/v1/coupons/5", act: "GET", want: true},
		{name: "staff has no user admin", who: staff, obj: "/api/v1/accounts/users/5", act: "PUT", want: false},
		{name: "customer blocked", who: customer, obj: "/api/v1/coupons", act: "GET", want: false},
		{name: "anonymous blocked", who: Principal{}, obj: "/api/v1/products", act: "POST", want: false},
		{name: "superuser bypass", who: root, obj: "/api/v1/anything", act: "DELETE", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.EnforcePrincipal(tc.who, tc.obj, tc.act)
			if err != nil {
				t.Fatalf("enforce failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("allow = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGrantUserPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantUserPolicy(7, "/coupons", "GET"); err != nil {
		t.Fatalf("grant user policy failed: %v", err)
	}
	allow, err := svc.EnforcePrincipal(Principal{UserID: 7}, "/api/v1/coupons", "GET")
	if err != nil || !allow {
		t.Fatalf("expected direct grant to allow, allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforcePrincipal(Principal{UserID: 7}, "/api/v1/coupons", "POST")
	if err != nil || allow {
		t.Fatalf("expected other actions denied, allow=%v err=%v", allow, err)
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.RevokeRolePolicy("catalog_editor", "/products", "POST"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err := svc.EnforcePrincipal(Principal{UserID: 2, IsStaff: true}, "/api/v1/products", "POST")
	if err != nil || allow {
		t.Fatalf("expected revoked policy to deny, allow=%v err=%v", allow, err)
	}
}

func TestBootstrapBuiltinRolesIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "role:catalog_editor" || roles[1] != "role:staff" {
		t.Fatalf("unexpected roles: %v", roles)
	}
	policies, err := svc.GetRolePolicies("staff")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 9 {
		t.Fatalf("expected staff to see 9 policies including inherited, got %d: %+v", len(policies), policies)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/products/:id", want: "/products/:id"},
		{in: "/products/:id", want: "/products/:id"},
		{in: "coupons", want: "/coupons"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}
