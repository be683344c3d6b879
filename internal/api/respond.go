package api

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"category-dashboard/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type validationResponse struct {
	Errors []service.FieldError `json:"errors"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("encode response")
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, messageResponse{Message: msg})
}

func (s *Server) writeValidation(w http.ResponseWriter, verr *service.ValidationError) {
	s.writeJSON(w, http.StatusBadRequest, validationResponse{Errors: verr.Fields})
}

// writeServerError logs err and answers 500. The error text is only exposed
// in development.
func (s *Server) writeServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(msg)

	resp := messageResponse{Message: msg}
	if s.devErrors {
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusInternalServerError, resp)
}
