package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parish/internal/domain/account"
	"parish/internal/domain/category"
	"parish/internal/domain/featureflag"
	"parish/internal/domain/member"
	"parish/internal/domain/tenant"

	"github.com/google/uuid"
)

// SeedDemoDeps holds stores needed for demo data seeding.
type SeedDemoDeps struct {
	TenantStore      seedTenantStore
	AccountStore     seedAccountStore
	MemberStore      seedMemberStore
	CategoryStore    seedCategoryStore
	SubcategoryStore seedSubcategoryStore
	FlagStore        seedFlagStore
}

type seedTenantStore interface {
	Save(ctx context.Context, t tenant.Tenant) error
	List(ctx context.Context) ([]tenant.Tenant, error)
}

type seedAccountStore interface {
	Save(ctx context.Context, a account.Account) error
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type seedMemberStore interface {
	Save(ctx context.Context, m member.Member) error
}

type seedCategoryStore interface {
	Save(ctx context.Context, c category.Category) error
	ListByTenant(ctx context.Context, tenantID string) ([]category.Category, error)
}

type seedSubcategoryStore interface {
	Save(ctx context.Context, s category.Subcategory) error
}

type seedFlagStore interface {
	GetByKey(ctx context.Context, key string) (featureflag.FeatureFlag, error)
	Save(ctx context.Context, f featureflag.FeatureFlag) error
}

// demoAccountDef defines a single demo account to seed.
type demoAccountDef struct {
	Email      string
	Password   string
	Role       string
	MemberName string
	MemberRole string
}

// demoAccounts returns the list of demo accounts to seed.
func demoAccounts() []demoAccountDef {
	return []demoAccountDef{
		{
			Email:      "demo+admin@parish.example",
			Password:   "Shepherd+admin!",
			Role:       account.RoleAdmin,
			MemberName: "", // admin doesn't need a member record
		},
		{
			Email:      "demo+staff@parish.example",
			Password:   "Shepherd+staff!",
			Role:       account.RoleStaff,
			MemberName: "Demo Staff",
			MemberRole: member.RoleStaff,
		},
		{
			Email:      "demo+member@parish.example",
			Password:   "Shepherd+member!",
			Role:       account.RoleMember,
			MemberName: "Demo Member",
			MemberRole: member.RoleMember,
		},
	}
}

// defaultFlags returns the feature flags every installation starts with.
func defaultFlags() []featureflag.FeatureFlag {
	return []featureflag.FeatureFlag{
		{Key: "social_posts", Description: "Compose and schedule social media posts", EnabledAdmin: true, EnabledStaff: true},
		{Key: "messaging", Description: "Member-to-member messaging", EnabledAdmin: true, EnabledStaff: true, EnabledMember: true},
		{Key: "calendar_feed", Description: "Public iCalendar feed of upcoming events", EnabledAdmin: true, EnabledStaff: true, EnabledMember: true},
		{Key: "csv_import", Description: "Bulk member import from CSV", EnabledAdmin: true},
	}
}

// ExecuteSeedDemo creates a demo tenant with a starter catalog, default
// feature flags, and demo accounts for each role. It is idempotent:
// the tenant is created only when no tenants exist, and accounts are
// skipped when their email is already registered.
// PRE: Database is initialized.
// POST: At least one tenant exists; default flags and demo accounts present.
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) (string, error) {
	tenants, err := deps.TenantStore.List(ctx)
	if err != nil {
		return "", fmt.Errorf("seed demo: list tenants: %w", err)
	}

	var tenantID string
	if len(tenants) > 0 {
		tenantID = tenants[0].ID
	} else {
		tenantID = uuid.New().String()
		t := tenant.Tenant{
			ID:           tenantID,
			Name:         "St Demo Parish",
			Slug:         "st-demo",
			ContactEmail: "office@parish.example",
			Timezone:     "Pacific/Auckland",
			CreatedAt:    time.Now(),
		}
		if err := t.Validate(); err != nil {
			return "", fmt.Errorf("seed demo tenant: %w", err)
		}
		if err := deps.TenantStore.Save(ctx, t); err != nil {
			return "", fmt.Errorf("seed demo tenant: save: %w", err)
		}
		slog.Info("seed_event", "event", "tenant_created", "tenant_id", tenantID, "slug", t.Slug)
	}

	if err := seedCatalog(ctx, deps, tenantID); err != nil {
		return "", err
	}
	if err := seedFlags(ctx, deps); err != nil {
		return "", err
	}
	if err := seedAccounts(ctx, deps, tenantID); err != nil {
		return "", err
	}

	return tenantID, nil
}

// seedCatalog creates the starter category tree if the tenant has none.
func seedCatalog(ctx context.Context, deps SeedDemoDeps, tenantID string) error {
	existing, err := deps.CategoryStore.ListByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("seed catalog: list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	worshipID := uuid.New().String()
	communityID := uuid.New().String()

	categories := []category.Category{
		{ID: worshipID, TenantID: tenantID, Name: "Worship", Description: "Services and liturgy", Order: 1},
		{ID: communityID, TenantID: tenantID, Name: "Community", Description: "Groups and gatherings", Order: 2},
	}
	for _, c := range categories {
		if err := deps.CategoryStore.Save(ctx, c); err != nil {
			return fmt.Errorf("seed catalog: save category %s: %w", c.Name, err)
		}
	}

	subcategories := []category.Subcategory{
		{ID: uuid.New().String(), CategoryID: worshipID, Name: "Sunday Services", Order: 1},
		{ID: uuid.New().String(), CategoryID: worshipID, Name: "Midweek Prayer", Order: 2},
		{ID: uuid.New().String(), CategoryID: communityID, Name: "Youth Group", Order: 1},
		{ID: uuid.New().String(), CategoryID: communityID, Name: "Seniors Fellowship", Order: 2},
	}
	for _, s := range subcategories {
		if err := deps.SubcategoryStore.Save(ctx, s); err != nil {
			return fmt.Errorf("seed catalog: save subcategory %s: %w", s.Name, err)
		}
	}

	slog.Info("seed_event", "event", "catalog_seeded", "categories", len(categories), "subcategories", len(subcategories))
	return nil
}

// seedFlags inserts any default feature flags that are missing.
func seedFlags(ctx context.Context, deps SeedDemoDeps) error {
	created := 0
	for _, f := range defaultFlags() {
		if _, err := deps.FlagStore.GetByKey(ctx, f.Key); err == nil {
			continue // already exists
		}
		if err := deps.FlagStore.Save(ctx, f); err != nil {
			return fmt.Errorf("seed flag %s: %w", f.Key, err)
		}
		created++
	}
	if created > 0 {
		slog.Info("seed_event", "event", "flags_seeded", "created", created)
	}
	return nil
}

// seedAccounts creates the demo accounts for each role if they don't already
// exist, with member records for non-admin accounts.
func seedAccounts(ctx context.Context, deps SeedDemoDeps, tenantID string) error {
	created := 0
	for _, def := range demoAccounts() {
		_, err := deps.AccountStore.GetByEmail(ctx, def.Email)
		if err == nil {
			continue // already exists
		}

		acct := account.Account{
			ID:       uuid.New().String(),
			TenantID: tenantID,
			Email:    def.Email,
			Role:     def.Role,
		}
		if err := acct.SetPassword(def.Password); err != nil {
			return fmt.Errorf("seed demo account %s: set password: %w", def.Email, err)
		}
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return fmt.Errorf("seed demo account %s: save: %w", def.Email, err)
		}

		if def.MemberName != "" {
			m := member.Member{
				ID:        uuid.New().String(),
				TenantID:  tenantID,
				AccountID: acct.ID,
				Name:      def.MemberName,
				Email:     def.Email,
				Role:      def.MemberRole,
				Status:    member.StatusActive,
				JoinedAt:  time.Now(),
			}
			if err := deps.MemberStore.Save(ctx, m); err != nil {
				return fmt.Errorf("seed demo member %s: save: %w", def.MemberName, err)
			}
		}

		created++
		slog.Info("seed_event", "event", "demo_account_created", "email", def.Email, "role", def.Role)
	}

	if created > 0 {
		slog.Info("seed_event", "event", "demo_accounts_seeded", "created", created)
	}
	return nil
}
