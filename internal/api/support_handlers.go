package api

import (
	"errors"
	"net/http"

	"homeservices/internal/domain"
	"homeservices/internal/models"
	"homeservices/internal/service"
)

func (s *HTTPServer) handleCreateSupport(w http.ResponseWriter, r *http.Request) {
	var in service.SupportInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	req, err := s.svc.Support.CreateRequest(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "Failed to submit support request")
		return
	}
	writeData(w, http.StatusCreated, "Support request submitted successfully", map[string]any{"request": req})
}

func (s *HTTPServer) handleListSupport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.Support.ListRequests(r.Context(), principal(r), service.SupportListInput{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err, "Failed to get support requests")
		return
	}
	writeData(w, http.StatusOK, "", page)
}

func (s *HTTPServer) handleUpdateSupport(w http.ResponseWriter, r *http.Request) {
	var in service.SupportUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	req, err := s.svc.Support.UpdateRequest(r.Context(), principal(r), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err, "Failed to update support request")
		return
	}
	writeData(w, http.StatusOK, "Support request updated successfully", map[string]any{"request": req})
}

func (s *HTTPServer) handleListGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.svc.Gallery.List(r.Context(), q.Get("category"), q.Get("section"))
	if err != nil {
		s.writeError(w, r, err, "Failed to get gallery")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"items": items})
}

// handleUploadGallery reads one "file" part plus title, description, category and section fields.
func (s *HTTPServer) handleUploadGallery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxGalleryFileSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, domain.NewValidationError("File size must be between 1 byte and 10MB", "file"), "")
			return
		}
		s.writeError(w, r, domain.NewValidationError("Invalid multipart form", "file"), "")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, domain.NewValidationError("Please select a file to upload", "file"), "")
		return
	}
	defer file.Close()

	item, err := s.svc.Gallery.Upload(r.Context(), principal(r), service.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Section:     r.FormValue("section"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.writeError(w, r, err, "Failed to upload media")
		return
	}
	writeData(w, http.StatusCreated, "Media uploaded successfully", map[string]any{"item": item})
}

func (s *HTTPServer) handleDeleteGallery(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Gallery.Delete(r.Context(), principal(r), r.PathValue("id")); err != nil {
		s.writeError(w, r, err, "Failed to delete media")
		return
	}
	writeData(w, http.StatusOK, "Media deleted successfully", nil)
}
