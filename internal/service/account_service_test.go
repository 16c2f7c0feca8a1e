package service

import (
	"errors"
	"testing"

	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"
)

func validRegisterInput(username string) RegisterInput {
	return RegisterInput{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "Secret123",
		RepeatPassword: "Secret123",
		PhoneNumber:    "+44 20 7946 0000",
		Birthday:       "1985-06-15",
		Address: AddressInput{
			Address1:   "221B Baker Street",
			Country:    "gb",
			City:       "London",
			PostalCode: "NW1 6XE",
		},
	}
}

func TestRegisterCreatesProfileAndSharedAddress(t *testing.T) {
	f := newFixture(t)
	first, err := f.accounts.Register(validRegisterInput("holmes"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if first.Profile == nil || len(first.Profile.Addresses) != 1 {
		t.Fatalf("expected profile with one address, got %+v", first.Profile)
	}
	if first.Profile.Addresses[0].Country != "GB" {
		t.Fatalf("expected normalized country, got %s", first.Profile.Addresses[0].Country)
	}
	if first.Profile.Birthday == nil || first.Profile.Birthday.Format("2006-01-02") != "1985-06-15" {
		t.Fatalf("unexpected birthday: %v", first.Profile.Birthday)
	}

	second, err := f.accounts.Register(validRegisterInput("watson"))
	if err != nil {
		t.Fatalf("register second failed: %v", err)
	}
	if second.Profile.Addresses[0].ID != first.Profile.Addresses[0].ID {
		t.Fatalf("expected identical address to be reused")
	}
	if n := f.countRows(t, &models.UserAddress{}); n != 1 {
		t.Fatalf("expected one shared address row, got %d", n)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.accounts.Register(validRegisterInput("taken")); err != nil {
		t.Fatalf("seed register failed: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{name: "password mismatch", mutate: func(in *RegisterInput) { in.RepeatPassword = "Other1234" }, want: ErrPasswordMismatch},
		{name: "weak password", mutate: func(in *RegisterInput) { in.Password, in.RepeatPassword = "short", "short" }, want: ErrValidation},
		{name: "username taken", mutate: func(in *RegisterInput) { in.Username = "taken" }, want: ErrUsernameTaken},
		{name: "email taken", mutate: func(in *RegisterInput) { in.Email = "TAKEN@example.com" }, want: ErrEmailTaken},
		{name: "bad birthday", mutate: func(in *RegisterInput) { in.Birthday = "15/06/1985" }, want: ErrValidation},
		{name: "bad phone", mutate: func(in *RegisterInput) { in.PhoneNumber = "call me" }, want: ErrValidation},
		{name: "missing city", mutate: func(in *RegisterInput) { in.Address.City = "" }, want: ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validRegisterInput("newcomer")
			tc.mutate(&input)
			if _, err := f.accounts.Register(input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	user, err := f.accounts.Register(validRegisterInput("lestrade"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := f.accounts.Login("lestrade", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := f.accounts.Login("nobody", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	result, err := f.accounts.Login("lestrade", "Secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := f.accounts.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "lestrade" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if result.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if _, err := f.accounts.ParseUserJWT(result.Token + "x"); err == nil {
		t.Fatalf("expected tampered token to fail")
	}
}

func TestUpdateUserReplacesAddressesCopyOnWrite(t *testing.T) {
	f := newFixture(t)
	alice, err := f.accounts.Register(validRegisterInput("alice"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	bob, err := f.accounts.Register(validRegisterInput("bob"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	shared := alice.Profile.Addresses[0]
	actor := Actor{UserID: alice.ID}

	edited := AddressInput{ID: shared.ID, Address1: "10 Downing Street", Country: "GB", City: "London", PostalCode: "SW1A 2AA"}
	extra := AddressInput{Address1: "1 Main Road", Country: "GB", City: "Leeds", PostalCode: "LS1 1AA"}
	addresses := []AddressInput{edited, extra}
	phone := "+44 113 496 0000"
	updated, err := f.accounts.UpdateUser(actor, alice.ID, UpdateUserInput{PhoneNumber: &phone, Addresses: &addresses})
	if err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if len(updated.Profile.Addresses) != 2 || updated.Profile.PhoneNumber != phone {
		t.Fatalf("unexpected profile after update: %+v", updated.Profile)
	}
	for _, addr := range updated.Profile.Addresses {
		if addr.ID == shared.ID {
			t.Fatalf("editing a shared address must not reuse its row")
		}
	}

	bobProfile, err := f.repos.users.GetProfile(bob.ID)
	if err != nil {
		t.Fatalf("load bob profile failed: %v", err)
	}
	if len(bobProfile.Addresses) != 1 || bobProfile.Addresses[0].Address1 != "221B Baker Street" {
		t.Fatalf("other user's address must stay unchanged: %+v", bobProfile.Addresses)
	}

	// bob 改地址后原共享地址不再被引用，应被回收
	bobAddresses := []AddressInput{extra}
	if _, err := f.accounts.UpdateUser(Actor{UserID: bob.ID}, bob.ID, UpdateUserInput{Addresses: &bobAddresses}); err != nil {
		t.Fatalf("update bob failed: %v", err)
	}
	if n := f.countRows(t, &models.UserAddress{}); n != 2 {
		t.Fatalf("expected orphan address to be removed, got %d rows", n)
	}
}

func TestUpdateUserOwnership(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.accounts.Register(validRegisterInput("alice"))
	bob, _ := f.accounts.Register(validRegisterInput("bob"))

	name := "Mallory"
	if _, err := f.accounts.UpdateUser(Actor{UserID: bob.ID}, alice.ID, UpdateUserInput{FirstName: &name}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected foreign update to be hidden, got %v", err)
	}
	foreign := []AddressInput{{ID: alice.Profile.Addresses[0].ID + 1000, Address1: "x", Country: "GB", City: "y", PostalCode: "z"}}
	if _, err := f.accounts.UpdateUser(Actor{UserID: bob.ID}, bob.ID, UpdateUserInput{Addresses: &foreign}); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected unknown address id to be rejected, got %v", err)
	}
	email := "bob@example.com"
	taken := "alice@example.com"
	if _, err := f.accounts.UpdateUser(Actor{UserID: bob.ID}, bob.ID, UpdateUserInput{Email: &taken}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if _, err := f.accounts.UpdateUser(Actor{UserID: bob.ID}, bob.ID, UpdateUserInput{Email: &email}); err != nil {
		t.Fatalf("keeping own email must succeed: %v", err)
	}

	admin := Actor{UserID: 9999, IsStaff: true, IsSuperuser: true}
	updated, err := f.accounts.UpdateUser(admin, alice.ID, UpdateUserInput{FirstName: &name})
	if err != nil || updated.FirstName != name {
		t.Fatalf("expected superuser update to succeed, user=%+v err=%v", updated, err)
	}
}

func TestUpdateUserStatusRevokesTokens(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.accounts.Register(validRegisterInput("alice"))

	disabled := false
	if _, err := f.accounts.UpdateUser(Actor{UserID: alice.ID}, alice.ID, UpdateUserInput{IsActive: &disabled}); !errors.Is(err, ErrStatusChangeDenied) {
		t.Fatalf("expected non-superuser status change to be denied, got %v", err)
	}

	admin := Actor{UserID: 9999, IsStaff: true, IsSuperuser: true}
	updated, err := f.accounts.UpdateUser(admin, alice.ID, UpdateUserInput{IsActive: &disabled})
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.IsActive || updated.TokenVersion != alice.TokenVersion+1 {
		t.Fatalf("expected inactive user with bumped token version, got active=%v version=%d", updated.IsActive, updated.TokenVersion)
	}
	if _, err := f.accounts.Login("alice", "Secret123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected disabled login to fail, got %v", err)
	}

	// 状态未变化时不重复递增版本
	again, err := f.accounts.UpdateUser(admin, alice.ID, UpdateUserInput{IsActive: &disabled})
	if err != nil || again.TokenVersion != updated.TokenVersion {
		t.Fatalf("expected idempotent status update, version=%d err=%v", again.TokenVersion, err)
	}
}

func TestListUsersAndAddresses(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.accounts.Register(validRegisterInput("alice"))
	if _, err := f.accounts.Register(validRegisterInput("bob")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	users, total, err := f.accounts.ListUsers(Actor{UserID: alice.ID}, repository.UserListFilter{Page: 1, PageSize: 20})
	if err != nil || total != 1 || users[0].ID != alice.ID {
		t.Fatalf("expected only self, users=%+v err=%v", users, err)
	}
	_, total, err = f.accounts.ListUsers(Actor{IsSuperuser: true}, repository.UserListFilter{Page: 1, PageSize: 20})
	if err != nil || total != 2 {
		t.Fatalf("expected superuser to list all users, total=%d err=%v", total, err)
	}

	addresses, err := f.accounts.ListAddresses(Actor{UserID: alice.ID})
	if err != nil || len(addresses) != 1 {
		t.Fatalf("unexpected addresses: %+v err=%v", addresses, err)
	}
}
