package category

import (
	"strings"
	"testing"
)

// TestCategory_Validate tests category validation rules.
func TestCategory_Validate(t *testing.T) {
	valid := Category{ID: "c1", TenantID: "t1", Name: "Discipleship"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid category, got: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(c *Category)
		wantErr string
	}{
		{"missing tenant", func(c *Category) { c.TenantID = "" }, "tenant"},
		{"empty name", func(c *Category) { c.Name = " " }, "name cannot be empty"},
		{"name too long", func(c *Category) { c.Name = strings.Repeat("n", MaxNameLength+1) }, "name cannot exceed"},
		{"description too long", func(c *Category) { c.Description = strings.Repeat("d", MaxDescriptionLength+1) }, "description cannot exceed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.modify(&c)
			if err := c.Validate(); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

// TestSubcategory_Validate tests subcategory validation rules.
func TestSubcategory_Validate(t *testing.T) {
	valid := Subcategory{ID: "s1", CategoryID: "c1", Name: "Alpha Course"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid subcategory, got: %v", err)
	}

	s := valid
	s.CategoryID = ""
	if err := s.Validate(); err != ErrMissingCategory {
		t.Fatalf("expected ErrMissingCategory, got: %v", err)
	}
}

// TestSubcategory_EventIDs tests the definition back-reference list.
func TestSubcategory_EventIDs(t *testing.T) {
	s := Subcategory{ID: "s1", CategoryID: "c1", Name: "Alpha Course"}

	s.AddEventID("def1")
	s.AddEventID("def2")
	s.AddEventID("def1") // duplicate is ignored
	if len(s.EventIDs) != 2 {
		t.Fatalf("expected 2 event IDs, got %d", len(s.EventIDs))
	}

	s.RemoveEventID("def1")
	if len(s.EventIDs) != 1 || s.EventIDs[0] != "def2" {
		t.Fatalf("expected [def2], got %v", s.EventIDs)
	}

	s.RemoveEventID("missing") // removing an absent ID is a no-op
	if len(s.EventIDs) != 1 {
		t.Fatalf("expected 1 event ID, got %d", len(s.EventIDs))
	}
}
