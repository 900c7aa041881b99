package orchestrators

import (
	"context"
	"fmt"
	"testing"

	"parish/internal/domain/account"
	"parish/internal/domain/category"
	"parish/internal/domain/featureflag"
	"parish/internal/domain/member"
	"parish/internal/domain/tenant"
)

// --- in-memory test doubles ---

type memSeedTenantStore struct {
	tenants []tenant.Tenant
}

// Save persists a tenant in memory.
// PRE: tenant has valid fields
// POST: tenant is appended to slice
func (s *memSeedTenantStore) Save(_ context.Context, t tenant.Tenant) error {
	s.tenants = append(s.tenants, t)
	return nil
}

// List returns all stored tenants.
// PRE: none
// POST: returns all tenants
func (s *memSeedTenantStore) List(_ context.Context) ([]tenant.Tenant, error) {
	return s.tenants, nil
}

type memSeedAcctStore struct {
	accounts map[string]account.Account // keyed by email
}

func newMemSeedAcctStore() *memSeedAcctStore {
	return &memSeedAcctStore{accounts: make(map[string]account.Account)}
}

// Save persists an account in memory.
// PRE: account has valid email
// POST: account is stored in memory map
func (s *memSeedAcctStore) Save(_ context.Context, a account.Account) error {
	s.accounts[a.Email] = a
	return nil
}

// GetByEmail retrieves an account by email from memory.
// PRE: email is non-empty
// POST: returns account or error if not found
func (s *memSeedAcctStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := s.accounts[email]
	if !ok {
		return account.Account{}, fmt.Errorf("not found")
	}
	return a, nil
}

type memSeedMemberStore struct {
	members []member.Member
}

// Save persists a member in memory.
// PRE: member has valid fields
// POST: member is appended to slice
func (s *memSeedMemberStore) Save(_ context.Context, m member.Member) error {
	s.members = append(s.members, m)
	return nil
}

type memSeedCategoryStore struct {
	categories []category.Category
}

func (s *memSeedCategoryStore) Save(_ context.Context, c category.Category) error {
	s.categories = append(s.categories, c)
	return nil
}

func (s *memSeedCategoryStore) ListByTenant(_ context.Context, tenantID string) ([]category.Category, error) {
	var out []category.Category
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memSeedSubcategoryStore struct {
	subcategories []category.Subcategory
}

func (s *memSeedSubcategoryStore) Save(_ context.Context, sub category.Subcategory) error {
	s.subcategories = append(s.subcategories, sub)
	return nil
}

type memSeedFlagStore struct {
	flags map[string]featureflag.FeatureFlag
}

func newMemSeedFlagStore() *memSeedFlagStore {
	return &memSeedFlagStore{flags: make(map[string]featureflag.FeatureFlag)}
}

func (s *memSeedFlagStore) GetByKey(_ context.Context, key string) (featureflag.FeatureFlag, error) {
	f, ok := s.flags[key]
	if !ok {
		return featureflag.FeatureFlag{}, fmt.Errorf("not found")
	}
	return f, nil
}

func (s *memSeedFlagStore) Save(_ context.Context, f featureflag.FeatureFlag) error {
	s.flags[f.Key] = f
	return nil
}

func newSeedDemoDeps() (SeedDemoDeps, *memSeedTenantStore, *memSeedAcctStore, *memSeedMemberStore, *memSeedCategoryStore, *memSeedFlagStore) {
	tenants := &memSeedTenantStore{}
	accts := newMemSeedAcctStore()
	members := &memSeedMemberStore{}
	cats := &memSeedCategoryStore{}
	subs := &memSeedSubcategoryStore{}
	flags := newMemSeedFlagStore()
	deps := SeedDemoDeps{
		TenantStore:      tenants,
		AccountStore:     accts,
		MemberStore:      members,
		CategoryStore:    cats,
		SubcategoryStore: subs,
		FlagStore:        flags,
	}
	return deps, tenants, accts, members, cats, flags
}

// --- tests ---

// TestSeedDemo_CreatesEverything verifies a fresh database gets a tenant,
// catalog, flags, and demo accounts.
func TestSeedDemo_CreatesEverything(t *testing.T) {
	deps, tenants, accts, members, cats, flags := newSeedDemoDeps()

	tenantID, err := ExecuteSeedDemo(context.Background(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenantID == "" {
		t.Fatal("expected a tenant ID")
	}
	if len(tenants.tenants) != 1 {
		t.Errorf("tenants=%d want 1", len(tenants.tenants))
	}
	if len(accts.accounts) != 3 {
		t.Errorf("accounts=%d want 3", len(accts.accounts))
	}
	// Admin has no member record
	if len(members.members) != 2 {
		t.Errorf("members=%d want 2", len(members.members))
	}
	if len(cats.categories) != 2 {
		t.Errorf("categories=%d want 2", len(cats.categories))
	}
	if len(flags.flags) == 0 {
		t.Error("expected default flags")
	}

	admin, ok := accts.accounts["demo+admin@parish.example"]
	if !ok {
		t.Fatal("admin account missing")
	}
	if admin.Role != account.RoleAdmin {
		t.Errorf("admin role=%q", admin.Role)
	}
	if admin.TenantID != tenantID {
		t.Error("admin must belong to the seeded tenant")
	}
	if err := admin.CheckPassword("Shepherd+admin!"); err != nil {
		t.Errorf("admin password not set: %v", err)
	}
}

// TestSeedDemo_Idempotent verifies re-running does not duplicate anything.
func TestSeedDemo_Idempotent(t *testing.T) {
	deps, tenants, accts, members, cats, _ := newSeedDemoDeps()

	first, err := ExecuteSeedDemo(context.Background(), deps)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := ExecuteSeedDemo(context.Background(), deps)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("tenant id changed between runs: %q vs %q", first, second)
	}
	if len(tenants.tenants) != 1 {
		t.Errorf("tenants=%d want 1", len(tenants.tenants))
	}
	if len(accts.accounts) != 3 {
		t.Errorf("accounts=%d want 3", len(accts.accounts))
	}
	if len(members.members) != 2 {
		t.Errorf("members=%d want 2", len(members.members))
	}
	if len(cats.categories) != 2 {
		t.Errorf("categories=%d want 2", len(cats.categories))
	}
}
