// Package domain contains the core data types for the boatserver mirror.
// This package has zero external dependencies and is imported by every other
// internal package (cache, syncer, handler).
package domain

import "time"

// Trip type values as they appear in the remote catalogue and the manifest.
const (
	// TripTypeTrip marks a real itinerary with remotely managed bookings.
	TripTypeTrip = "trip"
	// TripTypeContent marks a synthesized wrapper around an orphan guide
	// (content that exists in the catalogue without any attached booking).
	TripTypeContent = "content"
)

// Trip represents a single itinerary as exposed by the remote catalogue.
// A trip is the top-level aggregate; bookings and guide references belong
// to a trip. Trips are transient — rebuilt from the catalogue on every
// synchronization run — and only persisted as part of the manifest.
type Trip struct {
	Reference   string     `json:"reference"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date,omitempty"` // "2006-01-02" formatted date
	EndDate     string     `json:"end_date,omitempty"`
	Language    string     `json:"language,omitempty"`
	Type        string     `json:"type"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Bookings    []Booking  `json:"bookings"`
	Guides      []GuideRef `json:"guides"`
}

// EffectiveUpdatedAt returns the staleness bound for one of the trip's
// wallets: the most recent of the trip's and the booking's updated_at.
// Returns ErrNoTimeToCompare when neither timestamp is set.
func (t Trip) EffectiveUpdatedAt(b Booking) (time.Time, error) {
	return MostRecent(t.UpdatedAt, b.UpdatedAt)
}
