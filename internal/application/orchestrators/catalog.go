package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"parish/internal/domain/category"
)

// CategoryStoreForOrchestrator defines the category store interface needed
// by catalog orchestrators.
type CategoryStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (category.Category, error)
	Save(ctx context.Context, c category.Category) error
	Delete(ctx context.Context, id string) error
}

// SubcategoryListStore extends the subcategory store with listing and
// deletion for cascade operations.
type SubcategoryListStore interface {
	SubcategoryStoreForOrchestrator
	ListByCategory(ctx context.Context, categoryID string) ([]category.Subcategory, error)
	Delete(ctx context.Context, id string) error
}

// --- Create / Edit Category ---

// SaveCategoryInput carries input for creating or editing a category.
// An empty CategoryID means create.
type SaveCategoryInput struct {
	CategoryID  string
	TenantID    string
	Name        string
	Description string
	ImageURL    string
	Order       int
}

// SaveCategoryDeps holds dependencies for SaveCategory.
type SaveCategoryDeps struct {
	CategoryStore CategoryStoreForOrchestrator
	GenerateID    func() string
}

// ExecuteSaveCategory creates or updates a top-level catalog category.
// PRE: TenantID and Name are non-empty
// POST: Category is persisted
func ExecuteSaveCategory(ctx context.Context, input SaveCategoryInput, deps SaveCategoryDeps) (category.Category, error) {
	c := category.Category{
		ID:          input.CategoryID,
		TenantID:    input.TenantID,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Order:       input.Order,
	}
	created := c.ID == ""
	if created {
		c.ID = deps.GenerateID()
	} else {
		existing, err := deps.CategoryStore.GetByID(ctx, c.ID)
		if err != nil {
			return category.Category{}, err
		}
		c.TenantID = existing.TenantID
	}

	if err := c.Validate(); err != nil {
		return category.Category{}, err
	}
	if err := deps.CategoryStore.Save(ctx, c); err != nil {
		return category.Category{}, err
	}

	action := "category_updated"
	if created {
		action = "category_created"
	}
	slog.Info("catalog_event", "event", action, "category_id", c.ID, "tenant_id", c.TenantID)
	return c, nil
}

// --- Create / Edit Subcategory ---

// SaveSubcategoryInput carries input for creating or editing a subcategory.
// An empty SubcategoryID means create.
type SaveSubcategoryInput struct {
	SubcategoryID string
	CategoryID    string
	Name          string
	Description   string
	ImageURL      string
	Order         int
}

// SaveSubcategoryDeps holds dependencies for SaveSubcategory.
type SaveSubcategoryDeps struct {
	CategoryStore    CategoryStoreForOrchestrator
	SubcategoryStore SubcategoryListStore
	GenerateID       func() string
}

// ExecuteSaveSubcategory creates or updates a subcategory under an existing
// category. Edits preserve the subcategory's event list.
// PRE: CategoryID refers to an existing category; Name is non-empty
// POST: Subcategory is persisted
func ExecuteSaveSubcategory(ctx context.Context, input SaveSubcategoryInput, deps SaveSubcategoryDeps) (category.Subcategory, error) {
	if _, err := deps.CategoryStore.GetByID(ctx, input.CategoryID); err != nil {
		return category.Subcategory{}, err
	}

	s := category.Subcategory{
		ID:          input.SubcategoryID,
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Order:       input.Order,
	}
	created := s.ID == ""
	if created {
		s.ID = deps.GenerateID()
		s.EventIDs = []string{}
	} else {
		existing, err := deps.SubcategoryStore.GetByID(ctx, s.ID)
		if err != nil {
			return category.Subcategory{}, err
		}
		s.CategoryID = existing.CategoryID
		s.EventIDs = existing.EventIDs
	}

	if err := s.Validate(); err != nil {
		return category.Subcategory{}, err
	}
	if err := deps.SubcategoryStore.Save(ctx, s); err != nil {
		return category.Subcategory{}, err
	}

	action := "subcategory_updated"
	if created {
		action = "subcategory_created"
	}
	slog.Info("catalog_event", "event", action, "subcategory_id", s.ID, "category_id", s.CategoryID)
	return s, nil
}

// --- Delete Subcategory ---

// DeleteSubcategoryDeps holds dependencies for DeleteSubcategory.
type DeleteSubcategoryDeps struct {
	SubcategoryStore SubcategoryListStore
	DefinitionStore  DefinitionStoreForOrchestrator
	InstanceStore    InstanceStoreForOrchestrator
}

// ExecuteDeleteSubcategory removes a subcategory and cascades to its event
// definitions and their instances.
// PRE: subcategoryID refers to an existing subcategory
// POST: Subcategory, its definitions, and all their instances are removed
func ExecuteDeleteSubcategory(ctx context.Context, subcategoryID string, deps DeleteSubcategoryDeps) error {
	sub, err := deps.SubcategoryStore.GetByID(ctx, subcategoryID)
	if err != nil {
		return err
	}

	for _, eventID := range sub.EventIDs {
		if err := deps.InstanceStore.DeleteForDefinition(ctx, eventID); err != nil {
			return err
		}
		if err := deps.DefinitionStore.Delete(ctx, eventID); err != nil {
			return err
		}
	}
	if err := deps.SubcategoryStore.Delete(ctx, subcategoryID); err != nil {
		return err
	}

	slog.Info("catalog_event", "event", "subcategory_deleted", "subcategory_id", subcategoryID, "events_removed", len(sub.EventIDs))
	return nil
}

// --- Delete Category ---

// DeleteCategoryDeps holds dependencies for DeleteCategory.
type DeleteCategoryDeps struct {
	CategoryStore    CategoryStoreForOrchestrator
	SubcategoryStore SubcategoryListStore
	DefinitionStore  DefinitionStoreForOrchestrator
	InstanceStore    InstanceStoreForOrchestrator
}

// ExecuteDeleteCategory removes a category and cascades through its
// subcategories, event definitions, and instances.
// PRE: categoryID refers to an existing category
// POST: The whole subtree under the category is removed
func ExecuteDeleteCategory(ctx context.Context, categoryID string, deps DeleteCategoryDeps) error {
	if _, err := deps.CategoryStore.GetByID(ctx, categoryID); err != nil {
		return errors.New("category not found")
	}

	subs, err := deps.SubcategoryStore.ListByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := ExecuteDeleteSubcategory(ctx, sub.ID, DeleteSubcategoryDeps{
			SubcategoryStore: deps.SubcategoryStore,
			DefinitionStore:  deps.DefinitionStore,
			InstanceStore:    deps.InstanceStore,
		}); err != nil {
			return err
		}
	}
	if err := deps.CategoryStore.Delete(ctx, categoryID); err != nil {
		return err
	}

	slog.Info("catalog_event", "event", "category_deleted", "category_id", categoryID, "subcategories_removed", len(subs))
	return nil
}
