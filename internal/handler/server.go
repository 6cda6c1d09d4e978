// Package handler implements the local HTTP surface of the mirror.
// All handlers are methods on Server. Methods are split into
// domain-specific files (health.go, manifest.go, guide.go, telemetry.go)
// but all share the same Server struct so they can access its
// dependencies.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/destinationbook/boatserver/internal/guide"
	"github.com/destinationbook/boatserver/internal/middleware"
)

// GuideStore defines the guide lookups the handlers depend on.
// Defining the interface here (in the consumer package) lets handler
// tests inject a mock without touching the filesystem store.
type GuideStore interface {
	List() ([]guide.Info, error)
	Content(id string) ([]byte, error)
}

// TelemetrySink accepts client-reported event lines for later delivery.
type TelemetrySink interface {
	Append(line []byte) error
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	publicRoot string
	guides     GuideStore
	telemetry  TelemetrySink
	maxBody    int64
	log        *slog.Logger
}

// NewServer constructs the Server with all its dependencies. maxBody
// caps accepted telemetry bodies in bytes.
func NewServer(publicRoot string, guides GuideStore, telemetry TelemetrySink, maxBody int64, log *slog.Logger) *Server {
	return &Server{
		publicRoot: publicRoot,
		guides:     guides,
		telemetry:  telemetry,
		maxBody:    maxBody,
		log:        log,
	}
}

// Register mounts every route on r. Mirrored content under the public
// root is served as plain static files; everything the sync engine
// writes (wallets, guide archives, extracted guides, mirrored assets)
// is reachable by the same path the rewritten URLs point at.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/manifest", s.GetManifest)
	r.Get("/guides", s.ListGuides)
	r.Get("/guides/{id}/content", s.GetGuideContent)
	r.With(middleware.NewMaxBodySizeHandler(s.maxBody)).Post("/telemetry", s.PostTelemetry)
	r.Handle("/*", http.FileServer(http.Dir(s.publicRoot)))
}
