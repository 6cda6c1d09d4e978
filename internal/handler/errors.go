package handler

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// errorResponse is the envelope every error body uses.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v as the response body. Serialization failures
// after the status line has been written can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encoding failed", "error", err)
	}
}

// writeError writes the standard error envelope.
// The caller supplies the human-readable message (e.g. "guide not found")
// because the handler is the layer that knows what was being looked up.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

func (s *Server) notFound(w http.ResponseWriter, message string) {
	s.writeError(w, http.StatusNotFound, "not_found", message)
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.writeError(w, http.StatusBadRequest, "invalid_request", message)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
