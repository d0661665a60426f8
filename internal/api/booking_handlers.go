package api

import (
	"net/http"
	"strings"
	"time"

	"homeservices/internal/domain"
	"homeservices/internal/models"
	"homeservices/internal/service"
)

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	booking, err := s.svc.Bookings.CreateBooking(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err, "Server error while creating booking")
		return
	}
	writeData(w, http.StatusCreated, "Booking created successfully", map[string]any{"booking": booking})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Bookings.GetBooking(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching booking")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"booking": booking})
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	filter, err := bookingFilter(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	bookings, page, err := s.svc.Bookings.ListUserBookings(r.Context(), principal(r), userID, filter)
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching bookings")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"bookings": bookings, "pagination": page})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	bookings, page, err := s.svc.Bookings.ListBookings(r.Context(), principal(r), filter)
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching bookings")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"bookings": bookings, "pagination": page})
}

func bookingFilter(r *http.Request) (models.BookingFilter, error) {
	q := r.URL.Query()
	filter := models.BookingFilter{
		Status:    models.BookingStatus(strings.TrimSpace(q.Get("status"))),
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	for name, dest := range map[string]**time.Time{"dateFrom": &filter.DateFrom, "dateTo": &filter.DateTo} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation(models.DateLayout, raw, time.Local)
		if err != nil {
			return filter, domain.NewValidationError("Invalid date. Expected YYYY-MM-DD", name)
		}
		*dest = &d
	}
	return filter, nil
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.StatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	booking, err := s.svc.Bookings.UpdateStatus(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Server error while updating booking status")
		return
	}
	writeData(w, http.StatusOK, "Booking status updated successfully", map[string]any{"booking": booking})
}

func (s *HTTPServer) handleAssignTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.TechnicianInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	booking, err := s.svc.Bookings.AssignTechnician(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Failed to assign technician")
		return
	}
	writeData(w, http.StatusOK, "Technician assigned successfully", map[string]any{"booking": booking})
}

func (s *HTTPServer) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	booking, err := s.svc.Bookings.AddFeedback(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Server error while adding feedback")
		return
	}
	writeData(w, http.StatusOK, "Feedback added successfully", map[string]any{"booking": booking})
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if err := s.svc.Bookings.DeleteBooking(r.Context(), principal(r), id); err != nil {
		s.writeError(w, r, err, "Server error while deleting booking")
		return
	}
	writeData(w, http.StatusOK, "Booking deleted successfully", nil)
}
