package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"parish/internal/domain/category"
	"parish/internal/domain/event"
)

// mockDefinitionStore implements DefinitionStoreForOrchestrator for testing.
type mockDefinitionStore struct {
	definitions map[string]event.Definition
}

func (m *mockDefinitionStore) GetByID(_ context.Context, id string) (event.Definition, error) {
	d, ok := m.definitions[id]
	if !ok {
		return event.Definition{}, errors.New("not found")
	}
	return d, nil
}

func (m *mockDefinitionStore) Save(_ context.Context, d event.Definition) error {
	m.definitions[d.ID] = d
	return nil
}

func (m *mockDefinitionStore) Delete(_ context.Context, id string) error {
	delete(m.definitions, id)
	return nil
}

// mockInstanceStore implements InstanceStoreForOrchestrator for testing.
type mockInstanceStore struct {
	instances map[string]event.Instance
}

func (m *mockInstanceStore) GetByID(_ context.Context, id string) (event.Instance, error) {
	i, ok := m.instances[id]
	if !ok {
		return event.Instance{}, errors.New("not found")
	}
	return i, nil
}

func (m *mockInstanceStore) Save(_ context.Context, i event.Instance) error {
	m.instances[i.ID] = i
	return nil
}

func (m *mockInstanceStore) SaveBatch(_ context.Context, instances []event.Instance) error {
	for _, i := range instances {
		m.instances[i.ID] = i
	}
	return nil
}

func (m *mockInstanceStore) ReplaceForDefinition(_ context.Context, definitionID string, instances []event.Instance) error {
	for id, i := range m.instances {
		if i.ParentEventID == definitionID {
			delete(m.instances, id)
		}
	}
	for _, i := range instances {
		m.instances[i.ID] = i
	}
	return nil
}

func (m *mockInstanceStore) ListByParent(_ context.Context, parentEventID string, includeDeleted bool) ([]event.Instance, error) {
	var out []event.Instance
	for _, i := range m.instances {
		if i.ParentEventID != parentEventID {
			continue
		}
		if i.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (m *mockInstanceStore) DeleteForDefinition(_ context.Context, definitionID string) error {
	for id, i := range m.instances {
		if i.ParentEventID == definitionID {
			delete(m.instances, id)
		}
	}
	return nil
}

// mockSubcategoryStore implements SubcategoryListStore for testing.
type mockSubcategoryStore struct {
	subs map[string]category.Subcategory
}

func (m *mockSubcategoryStore) GetByID(_ context.Context, id string) (category.Subcategory, error) {
	s, ok := m.subs[id]
	if !ok {
		return category.Subcategory{}, errors.New("not found")
	}
	return s, nil
}

func (m *mockSubcategoryStore) Save(_ context.Context, s category.Subcategory) error {
	m.subs[s.ID] = s
	return nil
}

func (m *mockSubcategoryStore) Delete(_ context.Context, id string) error {
	delete(m.subs, id)
	return nil
}

func (m *mockSubcategoryStore) ListByCategory(_ context.Context, categoryID string) ([]category.Subcategory, error) {
	var out []category.Subcategory
	for _, s := range m.subs {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func newEventFixtures() (*mockDefinitionStore, *mockInstanceStore, *mockSubcategoryStore) {
	defs := &mockDefinitionStore{definitions: make(map[string]event.Definition)}
	insts := &mockInstanceStore{instances: make(map[string]event.Instance)}
	subs := &mockSubcategoryStore{subs: map[string]category.Subcategory{
		"sub-001": {ID: "sub-001", CategoryID: "cat-001", Name: "Sunday Mass", ImageURL: "https://img.example/mass.png"},
	}}
	return defs, insts, subs
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// --- ExecuteCreateEvent tests ---

func TestExecuteCreateEvent_RecurringWeekly(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	res, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:          "tenant-001",
		SubcategoryID:     "sub-001",
		Title:             "Sunday Mass",
		Dates:             []DateEntryInput{{Date: mustDate("2025-03-02"), StartHour: "10:00", EndHour: "11:00"}},
		IsRecurring:       true,
		RecurrencePattern: event.PatternWeekly,
		RecurrenceEndDate: mustDate("2025-03-30"),
		CreatedBy:         "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-001" },
		Now:              func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Five Sundays from Mar 2 through Mar 30
	if len(res.Instances) != 5 {
		t.Fatalf("expected 5 instances, got %d", len(res.Instances))
	}
	if res.Instances[0].ID != "event-001-1" {
		t.Errorf("expected first instance ID event-001-1, got %s", res.Instances[0].ID)
	}
	if _, ok := defs.definitions["event-001"]; !ok {
		t.Error("expected definition to be persisted")
	}
	if len(insts.instances) != 5 {
		t.Errorf("expected 5 persisted instances, got %d", len(insts.instances))
	}
	sub := subs.subs["sub-001"]
	if len(sub.EventIDs) != 1 || sub.EventIDs[0] != "event-001" {
		t.Errorf("expected subcategory to reference event-001, got %v", sub.EventIDs)
	}
}

func TestExecuteCreateEvent_InheritsParentImage(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	res, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:       "tenant-001",
		SubcategoryID:  "sub-001",
		Title:          "Youth Group",
		Dates:          []DateEntryInput{{Date: mustDate("2025-04-01")}},
		UseParentImage: true,
		CreatedBy:      "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-002" },
		Now:              time.Now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Definition.ImageURL != "https://img.example/mass.png" {
		t.Errorf("expected inherited image URL, got %q", res.Definition.ImageURL)
	}
}

func TestExecuteCreateEvent_UnknownSubcategory(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	_, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:      "tenant-001",
		SubcategoryID: "no-such-sub",
		Title:         "Orphan Event",
		Dates:         []DateEntryInput{{Date: mustDate("2025-04-01")}},
		CreatedBy:     "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-003" },
		Now:              time.Now,
	})
	if err == nil {
		t.Fatal("expected error for unknown subcategory")
	}
	if len(defs.definitions) != 0 {
		t.Error("expected no definition persisted on failure")
	}
}

func TestExecuteCreateEvent_InvalidDefinition(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	_, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:      "tenant-001",
		SubcategoryID: "sub-001",
		Title:         "",
		Dates:         []DateEntryInput{{Date: mustDate("2025-04-01")}},
		CreatedBy:     "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-004" },
		Now:              time.Now,
	})
	if !errors.Is(err, event.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

// --- ExecuteEditEvent tests ---

func TestExecuteEditEvent_RegeneratesInstances(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	created, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:          "tenant-001",
		SubcategoryID:     "sub-001",
		Title:             "Sunday Mass",
		Dates:             []DateEntryInput{{Date: mustDate("2025-03-02")}},
		IsRecurring:       true,
		RecurrencePattern: event.PatternWeekly,
		RecurrenceEndDate: mustDate("2025-03-30"),
		CreatedBy:         "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-001" },
		Now:              time.Now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Soft-delete one instance; the edit regeneration discards that state
	inst := created.Instances[2]
	if err := inst.SoftDelete(time.Now()); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	insts.instances[inst.ID] = inst

	edited, err := ExecuteEditEvent(context.Background(), EditEventInput{
		EventID:           "event-001",
		Title:             "Sunday Mass (Choir)",
		Dates:             []DateEntryInput{{Date: mustDate("2025-03-02")}},
		IsRecurring:       true,
		RecurrencePattern: event.PatternWeekly,
		RecurrenceEndDate: mustDate("2025-03-16"),
	}, EditEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	// Shrunk to three Sundays: Mar 2, 9, 16
	if len(edited.Instances) != 3 {
		t.Fatalf("expected 3 instances after shrink, got %d", len(edited.Instances))
	}
	if len(insts.instances) != 3 {
		t.Errorf("expected full replacement, %d instances remain", len(insts.instances))
	}
	for _, i := range insts.instances {
		if i.Title != "Sunday Mass (Choir)" {
			t.Errorf("instance %s kept stale title %q", i.ID, i.Title)
		}
		if i.IsDeleted {
			t.Errorf("regenerated instance %s carried soft-delete state", i.ID)
		}
	}
}

// --- ExecuteDeleteEvent tests ---

func TestExecuteDeleteEvent_CascadesAndUnlinks(t *testing.T) {
	defs, insts, subs := newEventFixtures()

	_, err := ExecuteCreateEvent(context.Background(), CreateEventInput{
		TenantID:          "tenant-001",
		SubcategoryID:     "sub-001",
		Title:             "Sunday Mass",
		Dates:             []DateEntryInput{{Date: mustDate("2025-03-02")}},
		IsRecurring:       true,
		RecurrencePattern: event.PatternWeekly,
		RecurrenceEndDate: mustDate("2025-03-30"),
		CreatedBy:         "acct-001",
	}, CreateEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
		GenerateID:       func() string { return "event-001" },
		Now:              time.Now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ExecuteDeleteEvent(context.Background(), "event-001", DeleteEventDeps{
		DefinitionStore:  defs,
		InstanceStore:    insts,
		SubcategoryStore: subs,
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(defs.definitions) != 0 {
		t.Error("expected definition removed")
	}
	if len(insts.instances) != 0 {
		t.Errorf("expected instances removed, %d remain", len(insts.instances))
	}
	if len(subs.subs["sub-001"].EventIDs) != 0 {
		t.Errorf("expected subcategory unlinked, got %v", subs.subs["sub-001"].EventIDs)
	}
}
