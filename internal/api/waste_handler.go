package api

import (
	"net/http"

	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/metrics"
	"github.com/wasteer/wasteer/internal/waste"
)

// wasteHandler groups waste ledger HTTP handlers.
type wasteHandler struct {
	svc     *waste.Service
	metrics *metrics.Metrics
}

func newWasteHandler(svc *waste.Service, m *metrics.Metrics) *wasteHandler {
	return &wasteHandler{svc: svc, metrics: m}
}

// listFilters pulls the lenient query filters shared by list and analytics.
func listFilters(r *http.Request) waste.ListFilters {
	q := r.URL.Query()
	return waste.ListFilters{
		WasteType: q.Get("waste_type"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		TeamID:    q.Get("team_id"),
	}
}

// Create handles POST /api/v1/waste.
func (h *wasteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req waste.CreateEntryInput
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	caller := auth.UserFromContext(r.Context())
	entry, err := h.svc.CreateEntry(r.Context(), caller, req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.metrics.ObserveEntryCreated(string(entry.WasteType), entry.Weight)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Waste entry created successfully",
		"waste_entry": entry,
	})
}

// List handles GET /api/v1/waste.
func (h *wasteHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	entries, err := h.svc.ListEntries(r.Context(), caller, listFilters(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waste_entries": entries})
}

// Get handles GET /api/v1/waste/{id}.
func (h *wasteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Waste entry not found")
		return
	}
	caller := auth.UserFromContext(r.Context())
	entry, err := h.svc.GetEntry(r.Context(), caller, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/v1/waste/{id}.
func (h *wasteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Waste entry not found")
		return
	}

	var req waste.UpdateEntryInput
	if err := readJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing JSON in request")
		return
	}

	caller := auth.UserFromContext(r.Context())
	entry, err := h.svc.UpdateEntry(r.Context(), caller, id, req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Waste entry updated successfully",
		"waste_entry": entry,
	})
}

// Delete handles DELETE /api/v1/waste/{id}.
func (h *wasteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Waste entry not found")
		return
	}
	caller := auth.UserFromContext(r.Context())
	if err := h.svc.DeleteEntry(r.Context(), caller, id); err != nil {
		writeAppError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Waste entry deleted successfully")
}

// Analytics handles GET /api/v1/waste/analytics. The period defaults to
// "week" when absent; an unrecognized value is a validation error.
func (h *wasteHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}

	caller := auth.UserFromContext(r.Context())
	report, err := h.svc.Aggregate(r.Context(), caller, period, listFilters(r))
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.metrics.IncAnalyticsQuery()
	writeJSON(w, http.StatusOK, report)
}
