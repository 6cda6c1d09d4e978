package handler

import (
	"io"
	"net/http"
)

// PostTelemetry handles POST /telemetry.
// The body is one client event, spooled locally and forwarded to the
// provider asynchronously. 202 signals "recorded, not yet delivered".
// Body size is capped by the max-body-size middleware; an over-limit
// chunked body surfaces here as a read error.
func (s *Server) PostTelemetry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.badRequest(w, "unreadable request body")
		return
	}
	if len(body) == 0 {
		s.badRequest(w, "empty request body")
		return
	}

	if err := s.telemetry.Append(body); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
