package account

import (
	"testing"
	"time"
)

// TestAccount_Validate tests account validation rules.
func TestAccount_Validate(t *testing.T) {
	valid := Account{ID: "a1", TenantID: "t1", Email: "admin@example.org", Role: RoleAdmin}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid account, got: %v", err)
	}

	tests := []struct {
		name   string
		modify func(a *Account)
		want   error
	}{
		{"empty email", func(a *Account) { a.Email = "  " }, ErrEmptyEmail},
		{"email without at", func(a *Account) { a.Email = "admin.example.org" }, ErrInvalidEmail},
		{"bad role", func(a *Account) { a.Role = "superuser" }, ErrInvalidRole},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.modify(&a)
			if err := a.Validate(); err != tc.want {
				t.Fatalf("expected %v, got: %v", tc.want, err)
			}
		})
	}
}

// TestAccount_PasswordRoundTrip tests hashing and verification.
func TestAccount_PasswordRoundTrip(t *testing.T) {
	a := Account{Email: "staff@example.org", Role: RoleStaff}

	if err := a.SetPassword(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got: %v", err)
	}
	if err := a.SetPassword("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got: %v", err)
	}
	if err := a.SetPassword("a long enough password"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	if err := a.CheckPassword("a long enough password"); err != nil {
		t.Fatalf("check password failed: %v", err)
	}
	if err := a.CheckPassword("wrong password entirely"); err != ErrWrongPassword {
		t.Fatalf("expected ErrWrongPassword, got: %v", err)
	}
}

// TestAccount_Lockout tests the failed-login lockout behavior.
func TestAccount_Lockout(t *testing.T) {
	a := Account{Email: "m@example.org", Role: RoleMember}
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin()
	}
	if a.IsLocked() {
		t.Fatal("account should not lock before 5 failures")
	}
	a.RecordFailedLogin()
	if !a.IsLocked() {
		t.Fatal("account should lock after 5 failures")
	}
	if a.LockedUntil.Before(time.Now()) {
		t.Fatal("lock should extend into the future")
	}
	a.ResetFailedLogins()
	if a.IsLocked() || a.FailedLogins != 0 {
		t.Fatal("reset should clear the lock")
	}
}

// TestAccount_RoleHelpers tests role predicate helpers.
func TestAccount_RoleHelpers(t *testing.T) {
	admin := Account{Role: RoleAdmin}
	staff := Account{Role: RoleStaff}
	member := Account{Role: RoleMember}

	if !admin.IsAdmin() || !admin.IsStaffOrAdmin() {
		t.Fatal("admin predicates wrong")
	}
	if staff.IsAdmin() || !staff.IsStaffOrAdmin() {
		t.Fatal("staff predicates wrong")
	}
	if member.IsAdmin() || member.IsStaffOrAdmin() {
		t.Fatal("member predicates wrong")
	}
}
