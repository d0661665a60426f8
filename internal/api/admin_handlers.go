package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"homeservices/internal/export"
	"homeservices/internal/service"
)

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Admin.DashboardStats(r.Context(), principal(r), queryInt(r, "period"))
	if err != nil {
		s.writeError(w, r, err, "Failed to get dashboard statistics")
		return
	}
	writeData(w, http.StatusOK, "", stats)
}

func (s *HTTPServer) handleEnhancedStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Admin.EnhancedStats(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err, "Failed to get dashboard statistics")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"stats": stats})
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.Admin.ListUsers(r.Context(), principal(r), service.UserListInput{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err, "Server error fetching users")
		return
	}
	writeData(w, http.StatusOK, "", page)
}

func (s *HTTPServer) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	user, err := s.svc.Admin.SetUserStatus(r.Context(), principal(r), r.PathValue("id"), body.IsActive)
	if err != nil {
		s.writeError(w, r, err, "Server error updating user status")
		return
	}
	verb := "deactivated"
	if user.IsActive {
		verb = "activated"
	}
	writeData(w, http.StatusOK, "User "+verb+" successfully", map[string]any{"user": user})
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.Admin.DeleteUser(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "Server error deleting user")
		return
	}
	writeData(w, http.StatusOK, "User and associated bookings deleted successfully",
		map[string]any{"deletedBookings": removed})
}

func (s *HTTPServer) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.svc.Admin.SystemHealth(r.Context()))
}

// handleExportBookings buffers the workbook so a failure can still produce a JSON error.
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Admin.ExportBookings(r.Context(), principal(r), &buf); err != nil {
		s.writeError(w, r, err, "Failed to export bookings")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.svc.Admin.ExportFileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
