// Package cache implements file-backed cached resources: one local file
// standing in for one remote resource. A resource knows how to detect
// no-op writes via content hashing and how to stamp an explicit
// modification time, so staleness of the mirror is always expressible as
// a plain mtime comparison.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Resource is one file-backed unit of cached state: an absolute path plus
// an optional in-memory pending payload. The zero value is not usable;
// construct with New or NewWithData.
type Resource struct {
	// Path is the absolute location of the backing file.
	Path string
	// Data is the pending payload for the next Write. Nil means "nothing
	// to write" and makes Write a no-op.
	Data []byte
}

// New builds a Resource from path segments. The joined path is made
// absolute so resources compare and log consistently regardless of the
// process working directory.
func New(segments ...string) *Resource {
	joined := filepath.Join(segments...)
	abs, err := filepath.Abs(joined)
	if err != nil {
		// filepath.Abs only fails when the working directory is gone;
		// fall back to the joined path rather than losing the resource.
		abs = joined
	}
	return &Resource{Path: abs}
}

// NewWithData builds a Resource carrying a pending payload.
func NewWithData(data []byte, segments ...string) *Resource {
	r := New(segments...)
	r.Data = data
	return r
}

// Exists reports whether the backing file is present on disk.
func (r *Resource) Exists() bool {
	_, err := os.Stat(r.Path)
	return err == nil
}

// Write persists the pending payload, creating parent directories as
// needed. A nil payload is a no-op. Filesystem errors propagate to the
// caller unwrapped in meaning: a half-written cache must surface, not be
// papered over.
func (r *Resource) Write() error {
	if r.Data == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("cache.Resource.Write: mkdir: %w", err)
	}
	if err := os.WriteFile(r.Path, r.Data, 0o644); err != nil {
		return fmt.Errorf("cache.Resource.Write: %w", err)
	}
	return nil
}

// Checksum returns the SHA-1 hex digest of the backing file's current
// contents.
func (r *Resource) Checksum() (string, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return "", fmt.Errorf("cache.Resource.Checksum: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cache.Resource.Checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// UnmodifiedData reports whether the pending payload is byte-identical to
// the backing file, compared by SHA-1. Returns false when the file does
// not exist. This is the content-level gate used for the trip manifest:
// stronger than a timestamp comparison, it decides whether a resync is
// needed at all.
func (r *Resource) UnmodifiedData() bool {
	if !r.Exists() {
		return false
	}
	onDisk, err := r.Checksum()
	if err != nil {
		return false
	}
	pending := sha1.Sum(r.Data)
	return hex.EncodeToString(pending[:]) == onDisk
}

// SetMTime stamps the backing file's modification time to t. The caller
// passes the *remote* resource's timestamp, never wall-clock time, so
// staleness comparisons stay meaningful across runs.
func (r *Resource) SetMTime(t time.Time) error {
	if err := os.Chtimes(r.Path, t, t); err != nil {
		return fmt.Errorf("cache.Resource.SetMTime: %w", err)
	}
	return nil
}

// UpdatedAt returns the backing file's modification time in UTC.
func (r *Resource) UpdatedAt() (time.Time, error) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return time.Time{}, fmt.Errorf("cache.Resource.UpdatedAt: %w", err)
	}
	return info.ModTime().UTC(), nil
}

// IsStale reports whether the resource must be refreshed against a remote
// copy last seen at candidate: true when the backing file does not exist,
// or when its stored modification time is strictly earlier than candidate.
func (r *Resource) IsStale(candidate time.Time) (bool, error) {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.Resource.IsStale: %w", err)
	}
	return info.ModTime().Before(candidate), nil
}
