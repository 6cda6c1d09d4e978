package guide

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/destinationbook/boatserver/internal/domain"
)

// Filesystem layout under the public content root. The archive path
// matches the path component of the provider's guide download URLs, so
// synced archives land here without any extra mapping.
const (
	archiveSubdir   = "guides/smartphone"
	webSubdir       = "guides/web"
	ArchiveFilename = "guide_tiled.zip"
	ContentFilename = "guide.json"
)

// Info describes one guide to the serving layer.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
	Ready     bool      `json:"ready"`
}

// Store lists and loads mirrored guides from the content root.
// It only ever reads what the sync engine wrote; a guide is considered
// ready once both its archive and a current extraction are present.
type Store struct {
	archiveRoot string
	webRoot     string
	log         *slog.Logger
}

// NewStore builds a Store over the given public content root.
func NewStore(publicRoot string, log *slog.Logger) *Store {
	return &Store{
		archiveRoot: filepath.Join(publicRoot, archiveSubdir),
		webRoot:     filepath.Join(publicRoot, webSubdir),
		log:         log,
	}
}

// ZipPath returns the archive location for a guide id.
func (s *Store) ZipPath(id string) string {
	return filepath.Join(s.archiveRoot, id, ArchiveFilename)
}

// WebPath returns the extraction directory for a guide id.
func (s *Store) WebPath(id string) string {
	return filepath.Join(s.webRoot, id)
}

// IDs returns the ids of all guides with a mirrored archive.
func (s *Store) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.archiveRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("guide.Store.IDs: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// List returns an Info for every mirrored guide.
func (s *Store) List() ([]Info, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		info := Info{ID: id, Path: path.Join("guides", id), Ready: s.Ready(id)}
		if ts, err := s.UpdatedAt(id); err == nil {
			info.UpdatedAt = ts
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Ready reports whether a guide can be served: its archive exists and
// the extraction directory is at least as new as the archive.
func (s *Store) Ready(id string) bool {
	zipInfo, err := os.Stat(s.ZipPath(id))
	if err != nil {
		return false
	}
	dirInfo, err := os.Stat(s.WebPath(id))
	if err != nil {
		return false
	}
	return !dirInfo.ModTime().Before(zipInfo.ModTime())
}

// UpdatedAt returns the guide archive's modification time in UTC, which
// the sync engine stamps to the guide's remote generation time.
func (s *Store) UpdatedAt(id string) (time.Time, error) {
	info, err := os.Stat(s.ZipPath(id))
	if err != nil {
		return time.Time{}, fmt.Errorf("guide.Store.UpdatedAt: %w", err)
	}
	return info.ModTime().UTC(), nil
}

// Content returns the guide's JSON description document.
// Returns domain.ErrNotFound when the guide has no extracted content yet.
func (s *Store) Content(id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.WebPath(id), ContentFilename))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("guide.Store.Content: %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("guide.Store.Content: %w", err)
	}
	return data, nil
}

// MaterializeAll extracts every mirrored archive whose extraction is
// stale. One broken archive does not block the others; failures are
// logged and the rest continue, matching the mirror's per-item isolation
// policy.
func (s *Store) MaterializeAll() error {
	ids, err := s.IDs()
	if err != nil {
		return err
	}

	var failed int
	for _, id := range ids {
		a := Archive{ZipPath: s.ZipPath(id), ExtractDir: s.WebPath(id)}
		if err := a.Materialize(); err != nil {
			failed++
			s.log.Error("guide extraction failed", "guide_id", id, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("guide.Store.MaterializeAll: %d of %d extractions failed", failed, len(ids))
	}
	return nil
}
