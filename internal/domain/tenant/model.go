package tenant

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 150
	MaxSlugLength = 60
)

// Domain errors
var (
	ErrEmptyName   = errors.New("tenant name cannot be empty")
	ErrInvalidSlug = errors.New("tenant slug must be lowercase letters, digits, and hyphens")
)

// Tenant is one organization (church, parish, charity) hosted by the
// application. Every tenant-scoped record carries the tenant's ID.
type Tenant struct {
	ID           string
	Name         string
	Slug         string // URL-safe identifier, unique across tenants
	ContactEmail string
	Timezone     string // IANA name, e.g. "Pacific/Auckland"
	CreatedAt    time.Time
}

// Validate checks the tenant's invariants.
// PRE: Tenant struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return errors.New("tenant name cannot exceed 150 characters")
	}
	if t.Slug == "" || len(t.Slug) > MaxSlugLength || !isValidSlug(t.Slug) {
		return ErrInvalidSlug
	}
	if t.ContactEmail != "" && !strings.Contains(t.ContactEmail, "@") {
		return errors.New("tenant contact email must be valid")
	}
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return errors.New("tenant timezone must be a valid IANA name")
		}
	}
	return nil
}

func isValidSlug(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
