package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
)

// EventHandler holds the event and admission handlers.
type EventHandler struct {
	events    *service.EventService
	admission *service.AdmissionService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, admission *service.AdmissionService) *EventHandler {
	return &EventHandler{events: events, admission: admission}
}

// CreateEvent handles POST /events
// Creates a new event owned by the caller.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	event, err := h.events.CreateEvent(r.Context(), principal, req)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
// Returns a JSON array of all events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
// Returns a single event with its registrants.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
// Organizers may only edit their own events.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	principal, _ := PrincipalFrom(r.Context())
	event, err := h.events.UpdateEvent(r.Context(), principal, pathID(r), req)
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
// Organizers may only delete their own events. Registrations go with it.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	if err := h.events.DeleteEvent(r.Context(), principal, pathID(r)); err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "event deleted successfully"})
}

// Register handles POST /events/{id}/register
// Performs a concurrency-safe registration of the caller for the event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	reg, err := h.admission.Register(r.Context(), principal, pathID(r))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// Unregister handles DELETE /events/{id}/unregister
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	if err := h.admission.Unregister(r.Context(), principal, pathID(r)); err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "unregistered successfully"})
}

// ListRegistrations handles GET /events/{id}/registrations
// Returns the registrants of an event, most recent first.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.admission.ListRegistrations(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}

	writeJSON(w, http.StatusOK, regs)
}
