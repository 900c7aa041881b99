package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"parish/internal/application/orchestrators"
	auditDomain "parish/internal/domain/audit"
	"parish/internal/domain/category"
)

// handleCategories handles GET (list) and POST (create/update) for
// /api/catalog/categories
func handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		categories, err := stores.CategoryStore.ListByTenant(ctx, sess.TenantID)
		if err != nil {
			internalError(w, err)
			return
		}
		type categoryView struct {
			category.Category
			DescriptionHTML string
		}
		views := make([]categoryView, 0, len(categories))
		for _, c := range categories {
			views = append(views, categoryView{Category: c, DescriptionHTML: renderMarkdown(c.Description)})
		}
		writeJSON(w, http.StatusOK, views)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
			Order       int    `json:"order"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if body.ID != "" {
			if _, ok := categoryInTenant(ctx, w, body.ID, sess.TenantID); !ok {
				return
			}
		}
		c, err := orchestrators.ExecuteSaveCategory(ctx, orchestrators.SaveCategoryInput{
			CategoryID:  body.ID,
			TenantID:    sess.TenantID,
			Name:        body.Name,
			Description: body.Description,
			ImageURL:    body.ImageURL,
			Order:       body.Order,
		}, orchestrators.SaveCategoryDeps{
			CategoryStore: stores.CategoryStore,
			GenerateID:    generateID,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		action := auditDomain.ActionUpdate
		status := http.StatusOK
		if body.ID == "" {
			action = auditDomain.ActionCreate
			status = http.StatusCreated
		}
		recordAudit(r, sess, auditDomain.CategoryCatalog, action, "category", c.ID, "category saved")
		writeJSON(w, status, c)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDeleteCategory handles DELETE /api/catalog/categories/{id}.
// Deleting a category cascades to subcategories, events, and instances.
func handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	categoryID := r.PathValue("id")
	if _, ok := categoryInTenant(r.Context(), w, categoryID, sess.TenantID); !ok {
		return
	}

	err := orchestrators.ExecuteDeleteCategory(r.Context(), categoryID, orchestrators.DeleteCategoryDeps{
		CategoryStore:    stores.CategoryStore,
		SubcategoryStore: stores.SubcategoryStore,
		DefinitionStore:  stores.DefinitionStore,
		InstanceStore:    stores.InstanceStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryCatalog, auditDomain.ActionDelete, "category", categoryID, "category deleted")
	w.WriteHeader(http.StatusNoContent)
}

// handleSubcategories handles GET (list by category) and POST for
// /api/catalog/subcategories
func handleSubcategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		categoryID := r.URL.Query().Get("category_id")
		if categoryID == "" {
			http.Error(w, "category_id is required", http.StatusBadRequest)
			return
		}
		if _, ok := categoryInTenant(ctx, w, categoryID, sess.TenantID); !ok {
			return
		}
		subs, err := stores.SubcategoryStore.ListByCategory(ctx, categoryID)
		if err != nil {
			internalError(w, err)
			return
		}
		type subcategoryView struct {
			category.Subcategory
			DescriptionHTML string
		}
		views := make([]subcategoryView, 0, len(subs))
		for _, sub := range subs {
			views = append(views, subcategoryView{Subcategory: sub, DescriptionHTML: renderMarkdown(sub.Description)})
		}
		writeJSON(w, http.StatusOK, views)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			ID          string `json:"id"`
			CategoryID  string `json:"category_id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
			Order       int    `json:"order"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if _, ok := categoryInTenant(ctx, w, body.CategoryID, sess.TenantID); !ok {
			return
		}
		if body.ID != "" {
			if _, ok := subcategoryInTenant(ctx, w, body.ID, sess.TenantID); !ok {
				return
			}
		}
		s, err := orchestrators.ExecuteSaveSubcategory(ctx, orchestrators.SaveSubcategoryInput{
			SubcategoryID: body.ID,
			CategoryID:    body.CategoryID,
			Name:          body.Name,
			Description:   body.Description,
			ImageURL:      body.ImageURL,
			Order:         body.Order,
		}, orchestrators.SaveSubcategoryDeps{
			CategoryStore:    stores.CategoryStore,
			SubcategoryStore: stores.SubcategoryStore,
			GenerateID:       generateID,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		action := auditDomain.ActionUpdate
		status := http.StatusOK
		if body.ID == "" {
			action = auditDomain.ActionCreate
			status = http.StatusCreated
		}
		recordAudit(r, sess, auditDomain.CategoryCatalog, action, "subcategory", s.ID, "subcategory saved")
		writeJSON(w, status, s)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDeleteSubcategory handles DELETE /api/catalog/subcategories/{id}
func handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	subcategoryID := r.PathValue("id")
	if _, ok := subcategoryInTenant(r.Context(), w, subcategoryID, sess.TenantID); !ok {
		return
	}

	err := orchestrators.ExecuteDeleteSubcategory(r.Context(), subcategoryID, orchestrators.DeleteSubcategoryDeps{
		SubcategoryStore: stores.SubcategoryStore,
		DefinitionStore:  stores.DefinitionStore,
		InstanceStore:    stores.InstanceStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryCatalog, auditDomain.ActionDelete, "subcategory", subcategoryID, "subcategory deleted")
	w.WriteHeader(http.StatusNoContent)
}

// allowed image extensions for catalog uploads
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// handleUploadImage handles POST /api/catalog/images — stores an uploaded
// image in the object store and returns its public URL.
func handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	if objectStore == nil {
		http.Error(w, "image uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, allowed := imageExtensions[ext]
	if !allowed {
		http.Error(w, "unsupported image type", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%s/images/%s%s", sess.TenantID, generateID(), ext)
	url, err := objectStore.Put(r.Context(), key, contentType, file)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
