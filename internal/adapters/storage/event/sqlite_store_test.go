package event

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/event"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	seed := []string{
		`INSERT INTO tenant (id, name, slug, created_at) VALUES ('t1', 'St Mary', 'st-mary', '2025-01-01T00:00:00Z')`,
		`INSERT INTO category (id, tenant_id, name) VALUES ('cat1', 't1', 'Services')`,
		`INSERT INTO subcategory (id, category_id, name) VALUES ('sub1', 'cat1', 'Sunday Mass')`,
	}
	for _, q := range seed {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func testDefinition() domain.Definition {
	return domain.Definition{
		ID:            "def1",
		TenantID:      "t1",
		SubcategoryID: "sub1",
		Title:         "Sunday Mass",
		Dates: []domain.DateEntry{
			{Date: day("2025-03-02"), StartHour: "10:00", EndHour: "11:00"},
		},
		IsRecurring:       true,
		RecurrencePattern: domain.PatternWeekly,
		RecurrenceEndDate: day("2025-03-30"),
		CreatedBy:         "acct1",
		CreatedAt:         time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDefinitionStore_SaveAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteDefinitionStore(db)
	ctx := context.Background()

	def := testDefinition()
	if err := store.Save(ctx, def); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByID(ctx, "def1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != def.Title {
		t.Errorf("Title = %q, want %q", got.Title, def.Title)
	}
	if len(got.Dates) != 1 {
		t.Fatalf("len(Dates) = %d, want 1", len(got.Dates))
	}
	if !got.Dates[0].Date.Equal(def.Dates[0].Date) {
		t.Errorf("Dates[0].Date = %v, want %v", got.Dates[0].Date, def.Dates[0].Date)
	}
	if got.Dates[0].StartHour != "10:00" || got.Dates[0].EndHour != "11:00" {
		t.Errorf("hours = %q-%q, want 10:00-11:00", got.Dates[0].StartHour, got.Dates[0].EndHour)
	}
	if !got.IsRecurring || got.RecurrencePattern != domain.PatternWeekly {
		t.Errorf("recurrence = (%v, %q), want (true, weekly)", got.IsRecurring, got.RecurrencePattern)
	}
	if !got.RecurrenceEndDate.Equal(def.RecurrenceEndDate) {
		t.Errorf("RecurrenceEndDate = %v, want %v", got.RecurrenceEndDate, def.RecurrenceEndDate)
	}
}

func TestDefinitionStore_UpdateOverwrites(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteDefinitionStore(db)
	ctx := context.Background()

	def := testDefinition()
	if err := store.Save(ctx, def); err != nil {
		t.Fatalf("Save: %v", err)
	}

	def.Title = "Evening Mass"
	def.RecurrencePattern = domain.PatternBiweekly
	if err := store.Save(ctx, def); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := store.GetByID(ctx, "def1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Evening Mass" || got.RecurrencePattern != domain.PatternBiweekly {
		t.Errorf("got (%q, %q), want (Evening Mass, biweekly)", got.Title, got.RecurrencePattern)
	}
}

func TestInstanceStore_ReplaceForDefinition(t *testing.T) {
	db := openTestDB(t)
	defStore := NewSQLiteDefinitionStore(db)
	instStore := NewSQLiteInstanceStore(db)
	ctx := context.Background()

	if err := defStore.Save(ctx, testDefinition()); err != nil {
		t.Fatalf("Save definition: %v", err)
	}

	first := domain.Expand(testDefinition())
	if err := instStore.SaveBatch(ctx, first); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	listed, err := instStore.ListByParent(ctx, "def1", false)
	if err != nil {
		t.Fatalf("ListByParent: %v", err)
	}
	if len(listed) != len(first) {
		t.Fatalf("listed %d instances, want %d", len(listed), len(first))
	}

	// Shrink the series and replace
	shrunk := testDefinition()
	shrunk.RecurrenceEndDate = day("2025-03-16")
	replacement := domain.Expand(shrunk)
	if err := instStore.ReplaceForDefinition(ctx, "def1", replacement); err != nil {
		t.Fatalf("ReplaceForDefinition: %v", err)
	}

	listed, err = instStore.ListByParent(ctx, "def1", false)
	if err != nil {
		t.Fatalf("ListByParent after replace: %v", err)
	}
	if len(listed) != len(replacement) {
		t.Errorf("listed %d instances after replace, want %d", len(listed), len(replacement))
	}
}

func TestInstanceStore_SoftDeleteRoundTrip(t *testing.T) {
	db := openTestDB(t)
	defStore := NewSQLiteDefinitionStore(db)
	instStore := NewSQLiteInstanceStore(db)
	ctx := context.Background()

	if err := defStore.Save(ctx, testDefinition()); err != nil {
		t.Fatalf("Save definition: %v", err)
	}
	instances := domain.Expand(testDefinition())
	if err := instStore.SaveBatch(ctx, instances); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	target := instances[1]
	if err := target.SoftDelete(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := instStore.Save(ctx, target); err != nil {
		t.Fatalf("Save deleted instance: %v", err)
	}

	active, err := instStore.ListByParent(ctx, "def1", false)
	if err != nil {
		t.Fatalf("ListByParent: %v", err)
	}
	if len(active) != len(instances)-1 {
		t.Errorf("active = %d, want %d", len(active), len(instances)-1)
	}
	for _, i := range active {
		if i.ID == target.ID {
			t.Errorf("deleted instance %s still listed as active", i.ID)
		}
	}

	all, err := instStore.ListByParent(ctx, "def1", true)
	if err != nil {
		t.Fatalf("ListByParent(includeDeleted): %v", err)
	}
	if len(all) != len(instances) {
		t.Errorf("all = %d, want %d", len(all), len(instances))
	}

	got, err := instStore.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsDeleted || got.DeletedAt.IsZero() {
		t.Errorf("round-tripped instance lost soft-delete state: %+v", got)
	}
}

func TestInstanceStore_ListByDateRange(t *testing.T) {
	db := openTestDB(t)
	defStore := NewSQLiteDefinitionStore(db)
	instStore := NewSQLiteInstanceStore(db)
	ctx := context.Background()

	if err := defStore.Save(ctx, testDefinition()); err != nil {
		t.Fatalf("Save definition: %v", err)
	}
	instances := domain.Expand(testDefinition())
	if err := instStore.SaveBatch(ctx, instances); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	// Weekly 2025-03-02 .. 2025-03-30; window covers the middle two Sundays
	got, err := instStore.ListByDateRange(ctx, "t1", "2025-03-08", "2025-03-17")
	if err != nil {
		t.Fatalf("ListByDateRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d instances in range, want 2", len(got))
	}
	if got[0].StartDate.Format("2006-01-02") != "2025-03-09" {
		t.Errorf("first in range = %s, want 2025-03-09", got[0].StartDate.Format("2006-01-02"))
	}
}
