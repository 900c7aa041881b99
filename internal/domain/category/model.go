package category

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 150
	MaxDescriptionLength = 2000
	MaxImageURLLength    = 2048
)

// Domain errors
var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrMissingTenant   = errors.New("category must belong to a tenant")
	ErrMissingCategory = errors.New("subcategory must belong to a category")
)

// Category is a top-level course catalog grouping (e.g. "Discipleship",
// "Community Outreach").
type Category struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	ImageURL    string
	Order       int // display position within the catalog
}

// Subcategory is a second-level grouping. Its settings screen owns event
// definitions; EventIDs is the back-reference list of definitions created
// under it.
type Subcategory struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	ImageURL    string
	Order       int
	EventIDs    []string
}

// Validate checks the category's invariants.
// PRE: Category struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Category) Validate() error {
	if c.TenantID == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("name cannot exceed 150 characters")
	}
	if len(c.Description) > MaxDescriptionLength {
		return errors.New("description cannot exceed 2000 characters")
	}
	if len(c.ImageURL) > MaxImageURLLength {
		return errors.New("image URL cannot exceed 2048 characters")
	}
	return nil
}

// Validate checks the subcategory's invariants.
// PRE: Subcategory struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Subcategory) Validate() error {
	if s.CategoryID == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > MaxNameLength {
		return errors.New("name cannot exceed 150 characters")
	}
	if len(s.Description) > MaxDescriptionLength {
		return errors.New("description cannot exceed 2000 characters")
	}
	if len(s.ImageURL) > MaxImageURLLength {
		return errors.New("image URL cannot exceed 2048 characters")
	}
	return nil
}

// AddEventID appends a definition ID to the back-reference list if absent.
// POST: EventIDs contains id exactly once
func (s *Subcategory) AddEventID(id string) {
	for _, existing := range s.EventIDs {
		if existing == id {
			return
		}
	}
	s.EventIDs = append(s.EventIDs, id)
}

// RemoveEventID drops a definition ID from the back-reference list.
// POST: EventIDs does not contain id
func (s *Subcategory) RemoveEventID(id string) {
	out := s.EventIDs[:0]
	for _, existing := range s.EventIDs {
		if existing != id {
			out = append(out, existing)
		}
	}
	s.EventIDs = out
}
