package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/service"
)

// AdminHandler serves the administrator dashboard.
type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Statistics handles GET /admin/statistics
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Users handles GET /admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Events handles GET /admin/events
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
