package api

import (
	"net/http"

	"homeservices/internal/service"
)

func (s *HTTPServer) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var in service.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	review, err := s.svc.Reviews.CreateReview(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err, "Server error while creating review")
		return
	}
	writeData(w, http.StatusCreated, "Review submitted successfully", map[string]any{"review": review})
}

func (s *HTTPServer) handleHomepageReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.svc.Reviews.HomepageReviews(r.Context(), queryInt(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching reviews")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"reviews": reviews})
}

func (s *HTTPServer) handleListReviews(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	reviews, page, err := s.svc.Reviews.ListReviews(r.Context(), principal(r), status, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, "Server error while fetching reviews")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"reviews": reviews, "pagination": page})
}

func (s *HTTPServer) handleReplyReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.ReplyInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	review, err := s.svc.Reviews.Reply(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Server error while replying to review")
		return
	}
	writeData(w, http.StatusOK, "Reply added successfully", map[string]any{"review": review})
}

func (s *HTTPServer) handleReviewFlags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	var in service.ReviewFlagsInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	review, err := s.svc.Reviews.SetFlags(r.Context(), principal(r), id, in)
	if err != nil {
		s.writeError(w, r, err, "Server error while updating review")
		return
	}
	writeData(w, http.StatusOK, "Review updated successfully", map[string]any{"review": review})
}

func (s *HTTPServer) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if err := s.svc.Reviews.DeleteReview(r.Context(), principal(r), id); err != nil {
		s.writeError(w, r, err, "Server error while deleting review")
		return
	}
	writeData(w, http.StatusOK, "Review deleted successfully", nil)
}
