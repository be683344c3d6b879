package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"category-dashboard/internal/model"
	"category-dashboard/internal/service"
)

const maxJSONBody = 1 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string             `json:"token"`
	User  *model.UserProfile `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if verr, ok := service.IsValidation(err); ok {
		s.writeValidation(w, verr)
		return
	}
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		s.writeMessage(w, http.StatusConflict, "User already exists")
		return
	case err != nil:
		s.writeServerError(w, r, "Server error during registration", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		s.writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		s.writeServerError(w, r, "Server error during login", err)
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	user, err := s.auth.Profile(r.Context(), userID)
	if err != nil {
		s.writeServerError(w, r, "Server error while fetching user", err)
		return
	}
	if user == nil {
		s.writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst zero.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	case isMaxBytes(err):
		s.writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		s.writeMessage(w, http.StatusBadRequest, "Invalid request payload")
	}
	return false
}
