package syncer

import (
	"fmt"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/destinationbook/boatserver/internal/cache"
	"github.com/destinationbook/boatserver/internal/domain"
)

// manifestFilename is the persisted trip catalogue, relative to the
// content root. It is the authoritative "what is currently servable"
// snapshot the serving layer reads.
const manifestFilename = "trips.json"

type manifestDoc struct {
	Trips []domain.Trip `json:"trips"`
}

func (e *Engine) manifestResource(data []byte) *cache.Resource {
	return cache.NewWithData(data, e.public, manifestFilename)
}

// expectedManifest computes the manifest content a fully successful run
// over this catalogue would persist: guide URLs normalized to path-only
// form plus the synthesized orphan trips appended. Comparing this against
// the existing manifest by content hash decides whether a resync is
// needed at all — and, because a failed guide keeps its remote URL in the
// persisted manifest, a run with failures never matches, so the next run
// retries.
func (e *Engine) expectedManifest(trips []domain.Trip) ([]byte, error) {
	norm := normalizeTrips(trips)
	norm = append(norm, e.pseudoTripsFor(norm)...)
	return marshalManifest(norm)
}

// writeManifest persists the final trip list. Not wrapped in per-item
// isolation: a failed manifest write fails the run.
func (e *Engine) writeManifest(trips []domain.Trip) error {
	data, err := marshalManifest(trips)
	if err != nil {
		return err
	}
	res := e.manifestResource(data)
	if err := res.Write(); err != nil {
		return fmt.Errorf("syncer: write manifest: %w", err)
	}
	e.log.Info("manifest written", "path", res.Path, "trips", len(trips))
	return nil
}

func marshalManifest(trips []domain.Trip) ([]byte, error) {
	if trips == nil {
		trips = []domain.Trip{}
	}
	data, err := json.Marshal(manifestDoc{Trips: trips})
	if err != nil {
		return nil, fmt.Errorf("syncer: marshal manifest: %w", err)
	}
	return data, nil
}

// normalizeTrips deep-copies the catalogue with every guide URL reduced
// to its path component, matching the rewrite a successful guide sync
// performs.
func normalizeTrips(trips []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		out[i] = t
		out[i].Bookings = append([]domain.Booking(nil), t.Bookings...)
		out[i].Guides = append([]domain.GuideRef(nil), t.Guides...)
		for gi := range out[i].Guides {
			g := &out[i].Guides[gi]
			if u, err := url.Parse(g.URL); err == nil {
				g.URL = u.Path
			}
		}
	}
	return out
}
