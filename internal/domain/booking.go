package domain

import (
	"strings"
	"time"
)

// Booking is the credential pair that grants access to one wallet document.
// The normalized (username, authentication token) pair is the cache key for
// the wallet file on disk.
type Booking struct {
	Username            string    `json:"username"`
	AuthenticationToken string    `json:"authentication_token"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Key returns the normalized credential pair: whitespace-stripped and
// uppercased, matching what the remote wallet endpoint expects and what the
// wallet filename is derived from. Normalization is deliberately a pure
// function so tests can assert exact outputs.
func (b Booking) Key() (username, token string) {
	return normalizeCredential(b.Username), normalizeCredential(b.AuthenticationToken)
}

// WalletFilename returns the deterministic filename for this booking's
// wallet document, derived from the normalized credential pair.
func (b Booking) WalletFilename() string {
	username, token := b.Key()
	return username + "-" + token + ".json"
}

func normalizeCredential(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
