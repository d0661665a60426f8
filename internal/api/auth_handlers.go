package api

import (
	"net/http"

	"homeservices/internal/service"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	res, err := s.svc.Users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "Server error during registration")
		return
	}
	writeData(w, http.StatusCreated, "User registered successfully", res)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	res, err := s.svc.Users.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "Server error during login")
		return
	}
	writeData(w, http.StatusOK, "Login successful", res)
}

func (s *HTTPServer) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	res, err := s.svc.Users.AdminLogin(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "Server error during login")
		return
	}
	writeData(w, http.StatusOK, "Admin login successful", res)
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.Me(r.Context(), principal(r))
	if err != nil {
		s.writeError(w, r, err, "Server error")
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"user": user})
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	user, err := s.svc.Users.UpdateProfile(r.Context(), principal(r), in)
	if err != nil {
		s.writeError(w, r, err, "Server error during profile update")
		return
	}
	writeData(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in service.PasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	if err := s.svc.Users.ChangePassword(r.Context(), principal(r), in); err != nil {
		s.writeError(w, r, err, "Server error during password change")
		return
	}
	writeData(w, http.StatusOK, "Password changed successfully", nil)
}
