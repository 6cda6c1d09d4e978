package domain

import (
	"strings"
	"time"
)

// GuideRef is a trip's reference to a packaged travel-content archive.
// URL arrives from the catalogue as a pre-signed, time-limited download
// link; after a successful sync it is rewritten in place to a path-only
// form so the persisted manifest never leaks or depends on expiring
// signatures.
type GuideRef struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
	Size        int64     `json:"size,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
}

// GuestToken derives the authentication token for a synthesized guest
// booking wrapping this guide: the configured client reference prefix
// followed by the guide id with dots replaced by dashes, all uppercased.
// The derivation is deterministic so the same guide always yields the
// same token across runs.
func (g GuideRef) GuestToken(clientReference string) string {
	id := strings.ReplaceAll(g.ID, ".", "-")
	return strings.ToUpper(clientReference + id)
}
