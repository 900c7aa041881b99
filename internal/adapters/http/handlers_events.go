package web

import (
	"net/http"
	"strconv"
	"time"

	"parish/internal/application/orchestrators"
	"parish/internal/application/projections"
	auditDomain "parish/internal/domain/audit"
)

const dateLayout = "2006-01-02"

type dateEntryBody struct {
	Date      string `json:"date"`
	StartHour string `json:"start_hour"`
	EndHour   string `json:"end_hour"`
}

func parseDateEntries(entries []dateEntryBody) ([]orchestrators.DateEntryInput, error) {
	out := make([]orchestrators.DateEntryInput, 0, len(entries))
	for _, e := range entries {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, orchestrators.DateEntryInput{
			Date:      d,
			StartHour: e.StartHour,
			EndHour:   e.EndHour,
		})
	}
	return out, nil
}

// handleEvents handles GET (list definitions) and POST (create) for
// /api/events
func handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		if subID := r.URL.Query().Get("subcategory_id"); subID != "" {
			if _, ok := subcategoryInTenant(ctx, w, subID, sess.TenantID); !ok {
				return
			}
			defs, err := stores.DefinitionStore.ListBySubcategory(ctx, subID)
			if err != nil {
				internalError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, defs)
			return
		}
		defs, err := stores.DefinitionStore.ListByTenant(ctx, sess.TenantID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, defs)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			SubcategoryID     string          `json:"subcategory_id"`
			Title             string          `json:"title"`
			Dates             []dateEntryBody `json:"dates"`
			IsRecurring       bool            `json:"is_recurring"`
			RecurrencePattern string          `json:"recurrence_pattern"`
			RecurrenceEndDate string          `json:"recurrence_end_date"`
			ImageURL          string          `json:"image_url"`
			UseParentImage    bool            `json:"use_parent_image"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		dates, err := parseDateEntries(body.Dates)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		var endDate time.Time
		if body.RecurrenceEndDate != "" {
			endDate, err = time.Parse(dateLayout, body.RecurrenceEndDate)
			if err != nil {
				http.Error(w, "invalid recurrence end date", http.StatusBadRequest)
				return
			}
		}
		if _, ok := subcategoryInTenant(ctx, w, body.SubcategoryID, sess.TenantID); !ok {
			return
		}
		result, err := orchestrators.ExecuteCreateEvent(ctx, orchestrators.CreateEventInput{
			TenantID:          sess.TenantID,
			SubcategoryID:     body.SubcategoryID,
			Title:             body.Title,
			Dates:             dates,
			IsRecurring:       body.IsRecurring,
			RecurrencePattern: body.RecurrencePattern,
			RecurrenceEndDate: endDate,
			ImageURL:          body.ImageURL,
			UseParentImage:    body.UseParentImage,
			CreatedBy:         sess.AccountID,
		}, orchestrators.CreateEventDeps{
			DefinitionStore:  stores.DefinitionStore,
			InstanceStore:    stores.InstanceStore,
			SubcategoryStore: stores.SubcategoryStore,
			GenerateID:       generateID,
			Now:              timeNow,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionCreate, "event", result.Definition.ID, "event created")
		writeJSON(w, http.StatusCreated, result)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEventByID handles GET, PUT and DELETE for /api/events/{id}
func handleEventByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := r.PathValue("id")

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		def, ok := definitionInTenant(ctx, w, eventID, sess.TenantID)
		if !ok {
			return
		}
		includeDeleted := r.URL.Query().Get("include_deleted") == "true"
		instances, err := stores.InstanceStore.ListByParent(ctx, eventID, includeDeleted)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"definition": def,
			"instances":  instances,
		})

	case "PUT":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		if _, ok := definitionInTenant(ctx, w, eventID, sess.TenantID); !ok {
			return
		}
		var body struct {
			Title             string          `json:"title"`
			Dates             []dateEntryBody `json:"dates"`
			IsRecurring       bool            `json:"is_recurring"`
			RecurrencePattern string          `json:"recurrence_pattern"`
			RecurrenceEndDate string          `json:"recurrence_end_date"`
			ImageURL          string          `json:"image_url"`
			UseParentImage    bool            `json:"use_parent_image"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		dates, err := parseDateEntries(body.Dates)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		var endDate time.Time
		if body.RecurrenceEndDate != "" {
			endDate, err = time.Parse(dateLayout, body.RecurrenceEndDate)
			if err != nil {
				http.Error(w, "invalid recurrence end date", http.StatusBadRequest)
				return
			}
		}
		result, err := orchestrators.ExecuteEditEvent(ctx, orchestrators.EditEventInput{
			EventID:           eventID,
			Title:             body.Title,
			Dates:             dates,
			IsRecurring:       body.IsRecurring,
			RecurrencePattern: body.RecurrencePattern,
			RecurrenceEndDate: endDate,
			ImageURL:          body.ImageURL,
			UseParentImage:    body.UseParentImage,
		}, orchestrators.EditEventDeps{
			DefinitionStore:  stores.DefinitionStore,
			InstanceStore:    stores.InstanceStore,
			SubcategoryStore: stores.SubcategoryStore,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionUpdate, "event", eventID, "event edited")
		writeJSON(w, http.StatusOK, result)

	case "DELETE":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		if _, ok := definitionInTenant(ctx, w, eventID, sess.TenantID); !ok {
			return
		}
		err := orchestrators.ExecuteDeleteEvent(ctx, eventID, orchestrators.DeleteEventDeps{
			DefinitionStore:  stores.DefinitionStore,
			InstanceStore:    stores.InstanceStore,
			SubcategoryStore: stores.SubcategoryStore,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionDelete, "event", eventID, "event deleted")
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleContinueSeries handles POST /api/events/{id}/continue — extends an
// open-ended recurring series with the next window of instances.
func handleContinueSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("id")
	if _, ok := definitionInTenant(r.Context(), w, eventID, sess.TenantID); !ok {
		return
	}

	instances, err := orchestrators.ExecuteContinueSeries(r.Context(), eventID, orchestrators.ContinueSeriesDeps{
		DefinitionStore: stores.DefinitionStore,
		InstanceStore:   stores.InstanceStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionUpdate, "event", eventID, "series continued")
	writeJSON(w, http.StatusOK, map[string]any{
		"added":     len(instances),
		"instances": instances,
	})
}

// handleEventAnalytics handles GET /api/events/{id}/analytics
func handleEventAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("id")
	if _, ok := definitionInTenant(r.Context(), w, eventID, sess.TenantID); !ok {
		return
	}

	result, err := projections.QueryGetEventAnalytics(r.Context(), projections.GetEventAnalyticsQuery{
		DefinitionID: eventID,
	}, projections.GetEventAnalyticsDeps{
		DefinitionStore:   stores.DefinitionStore,
		InstanceStore:     stores.InstanceStore,
		RegistrationStore: stores.RegistrationStore,
	})
	if err != nil {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUpcomingEvents handles GET /api/events/upcoming?days=30
func handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	result, err := projections.QueryGetUpcomingEvents(r.Context(), projections.GetUpcomingEventsQuery{
		TenantID: sess.TenantID,
		From:     timeNow(),
		Days:     days,
	}, projections.GetUpcomingEventsDeps{
		InstanceStore:     stores.InstanceStore,
		RegistrationStore: stores.RegistrationStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleInstanceByID handles PUT (edit) for /api/instances/{id}
func handleInstanceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PUT" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	instanceID := r.PathValue("id")
	if _, ok := instanceInTenant(r.Context(), w, instanceID, sess.TenantID); !ok {
		return
	}

	var body struct {
		Title     string `json:"title"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		StartHour string `json:"start_hour"`
		EndHour   string `json:"end_hour"`
		Order     int    `json:"order"`
		Status    string `json:"status"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	input := orchestrators.EditInstanceInput{
		InstanceID: instanceID,
		Title:      body.Title,
		StartHour:  body.StartHour,
		EndHour:    body.EndHour,
		Order:      body.Order,
		Status:     body.Status,
	}
	var err error
	if body.StartDate != "" {
		input.StartDate, err = time.Parse(dateLayout, body.StartDate)
		if err != nil {
			http.Error(w, "invalid start date", http.StatusBadRequest)
			return
		}
	}
	if body.EndDate != "" {
		input.EndDate, err = time.Parse(dateLayout, body.EndDate)
		if err != nil {
			http.Error(w, "invalid end date", http.StatusBadRequest)
			return
		}
	}
	inst, err := orchestrators.ExecuteEditInstance(r.Context(), input, orchestrators.EditInstanceDeps{
		InstanceStore: stores.InstanceStore,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionUpdate, "instance", instanceID, "instance edited")
	writeJSON(w, http.StatusOK, inst)
}

// handleDeleteInstance handles POST /api/instances/{id}/delete (soft delete)
func handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	instanceID := r.PathValue("id")
	if _, ok := instanceInTenant(r.Context(), w, instanceID, sess.TenantID); !ok {
		return
	}

	inst, err := orchestrators.ExecuteSoftDeleteInstance(r.Context(), instanceID, orchestrators.InstanceLifecycleDeps{
		InstanceStore: stores.InstanceStore,
		Now:           timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionDelete, "instance", instanceID, "instance deleted")
	writeJSON(w, http.StatusOK, inst)
}

// handleRestoreInstance handles POST /api/instances/{id}/restore
func handleRestoreInstance(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	instanceID := r.PathValue("id")
	if _, ok := instanceInTenant(r.Context(), w, instanceID, sess.TenantID); !ok {
		return
	}

	inst, err := orchestrators.ExecuteRestoreInstance(r.Context(), instanceID, orchestrators.InstanceLifecycleDeps{
		InstanceStore: stores.InstanceStore,
		Now:           timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionRestore, "instance", instanceID, "instance restored")
	writeJSON(w, http.StatusOK, inst)
}
