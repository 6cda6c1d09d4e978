package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

// manifestFilename is the trip catalogue the sync engine persists under
// the public root.
const manifestFilename = "trips.json"

// GetManifest handles GET /manifest.
// It serves the persisted trip catalogue verbatim. Before the first
// successful sync run there is no manifest yet, which is reported as 404
// rather than an empty catalogue so clients can tell the states apart.
func (s *Server) GetManifest(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.publicRoot, manifestFilename))
	if os.IsNotExist(err) {
		s.notFound(w, "no trip catalogue synced yet")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
