package api

import (
	"net/http"
	"strings"

	"homeservices/internal/models"
	"homeservices/internal/service"
)

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.Catalog.ListServices(r.Context(), models.ServiceFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		IsActive:  queryBool(r, "isActive"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching services")
		return
	}
	writeData(w, http.StatusOK, "", page)
}

func (s *HTTPServer) handlePopularServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.svc.Catalog.PopularServices(r.Context(), queryInt(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching popular services")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"services": services})
}

func (s *HTTPServer) handleSearchServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	services, err := s.svc.Catalog.SearchServices(r.Context(), q.Get("q"), strings.TrimSpace(q.Get("category")), queryInt(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, "Server error while searching services")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"services": services, "count": len(services)})
}

func (s *HTTPServer) handleServicesByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	services, err := s.svc.Catalog.ServicesByCategory(r.Context(), r.PathValue("category"),
		queryInt(r, "limit"), q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching services")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"services": services})
}

func (s *HTTPServer) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	svc, err := s.svc.Catalog.GetService(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching service")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"service": svc})
}

func (s *HTTPServer) handleAddService(w http.ResponseWriter, r *http.Request) {
	var in service.ServiceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	svc, err := s.svc.Catalog.AddService(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err, "Server error while creating service")
		return
	}
	writeData(w, http.StatusCreated, "Service created successfully", map[string]any{"service": svc})
}

func (s *HTTPServer) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.ServiceUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	svc, err := s.svc.Catalog.UpdateService(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Server error while updating service")
		return
	}
	writeData(w, http.StatusOK, "Service updated successfully", map[string]any{"service": svc})
}

func (s *HTTPServer) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if err := s.svc.Catalog.DeleteService(r.Context(), principal(r), id); err != nil {
		s.writeError(w, r, err, "Server error while deleting service")
		return
	}
	writeData(w, http.StatusOK, "Service deleted successfully", nil)
}
