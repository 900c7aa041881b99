package web

import (
	"context"
	"net/http"

	"parish/internal/domain/category"
	"parish/internal/domain/event"
	"parish/internal/domain/member"
	"parish/internal/domain/outbox"
	"parish/internal/domain/post"
	"parish/internal/domain/registration"
)

// Tenant ownership guards for by-ID lookups. A row that belongs to another
// tenant answers 404 exactly like a missing row, so resource IDs never
// confirm their existence across tenant boundaries.

func definitionInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (event.Definition, bool) {
	def, err := stores.DefinitionStore.GetByID(ctx, id)
	if err != nil || def.TenantID != tenantID {
		http.Error(w, "event not found", http.StatusNotFound)
		return event.Definition{}, false
	}
	return def, true
}

func instanceInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (event.Instance, bool) {
	inst, err := stores.InstanceStore.GetByID(ctx, id)
	if err != nil || inst.TenantID != tenantID {
		http.Error(w, "instance not found", http.StatusNotFound)
		return event.Instance{}, false
	}
	return inst, true
}

func memberInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (member.Member, bool) {
	m, err := stores.MemberStore.GetByID(ctx, id)
	if err != nil || m.TenantID != tenantID {
		http.Error(w, "member not found", http.StatusNotFound)
		return member.Member{}, false
	}
	return m, true
}

func categoryInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (category.Category, bool) {
	c, err := stores.CategoryStore.GetByID(ctx, id)
	if err != nil || c.TenantID != tenantID {
		http.Error(w, "category not found", http.StatusNotFound)
		return category.Category{}, false
	}
	return c, true
}

// subcategoryInTenant resolves ownership through the parent category.
func subcategoryInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (category.Subcategory, bool) {
	s, err := stores.SubcategoryStore.GetByID(ctx, id)
	if err != nil {
		http.Error(w, "subcategory not found", http.StatusNotFound)
		return category.Subcategory{}, false
	}
	c, err := stores.CategoryStore.GetByID(ctx, s.CategoryID)
	if err != nil || c.TenantID != tenantID {
		http.Error(w, "subcategory not found", http.StatusNotFound)
		return category.Subcategory{}, false
	}
	return s, true
}

func postInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (post.Post, bool) {
	p, err := stores.PostStore.GetByID(ctx, id)
	if err != nil || p.TenantID != tenantID {
		http.Error(w, "post not found", http.StatusNotFound)
		return post.Post{}, false
	}
	return p, true
}

// registrationInTenant resolves ownership through the registered instance.
func registrationInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (registration.Registration, bool) {
	reg, err := stores.RegistrationStore.GetByID(ctx, id)
	if err != nil {
		http.Error(w, "registration not found", http.StatusNotFound)
		return registration.Registration{}, false
	}
	inst, err := stores.InstanceStore.GetByID(ctx, reg.InstanceID)
	if err != nil || inst.TenantID != tenantID {
		http.Error(w, "registration not found", http.StatusNotFound)
		return registration.Registration{}, false
	}
	return reg, true
}

func outboxEntryInTenant(ctx context.Context, w http.ResponseWriter, id, tenantID string) (outbox.Entry, bool) {
	e, err := stores.OutboxStore.GetByID(ctx, id)
	if err != nil || e.TenantID != tenantID {
		http.Error(w, "outbox entry not found", http.StatusNotFound)
		return outbox.Entry{}, false
	}
	return e, true
}
