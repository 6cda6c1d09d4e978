// Package guide manages the extracted side of mirrored guide archives:
// idempotent zip materialization and the read-only store the serving
// layer lists and loads guide content from.
package guide

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Archive is one remotely sourced guide archive already present as a
// local file, paired with the sibling directory its contents are
// extracted into for serving.
type Archive struct {
	ZipPath    string
	ExtractDir string
}

// Materialize extracts the archive into ExtractDir unless the extraction
// is already current. "Current" is the same staleness idiom used
// everywhere else in the mirror: the extraction directory's modification
// time is at least the archive file's. A stale extraction is removed
// entirely and rebuilt, and the fresh directory is stamped with the
// archive's modification time so the next run can skip it with a single
// stat.
func (a Archive) Materialize() error {
	zipInfo, err := os.Stat(a.ZipPath)
	if err != nil {
		return fmt.Errorf("guide.Archive.Materialize: %w", err)
	}

	if dirInfo, err := os.Stat(a.ExtractDir); err == nil {
		if !dirInfo.ModTime().Before(zipInfo.ModTime()) {
			return nil
		}
		if err := os.RemoveAll(a.ExtractDir); err != nil {
			return fmt.Errorf("guide.Archive.Materialize: remove stale extraction: %w", err)
		}
	}

	if err := os.MkdirAll(a.ExtractDir, 0o755); err != nil {
		return fmt.Errorf("guide.Archive.Materialize: %w", err)
	}

	reader, err := zip.OpenReader(a.ZipPath)
	if err != nil {
		return fmt.Errorf("guide.Archive.Materialize: open %s: %w", a.ZipPath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if err := a.extractEntry(entry); err != nil {
			return err
		}
	}

	if err := os.Chtimes(a.ExtractDir, zipInfo.ModTime(), zipInfo.ModTime()); err != nil {
		return fmt.Errorf("guide.Archive.Materialize: stamp extraction: %w", err)
	}
	return nil
}

// extractEntry writes one zip entry under ExtractDir. Entries whose
// destination already exists are skipped (idempotence within a single
// extraction pass); entries that would escape ExtractDir are rejected.
func (a Archive) extractEntry(entry *zip.File) error {
	dest := filepath.Join(a.ExtractDir, entry.Name)

	// Reject zip-slip paths: the cleaned destination must stay inside
	// the extraction directory.
	if !strings.HasPrefix(dest, filepath.Clean(a.ExtractDir)+string(os.PathSeparator)) {
		return fmt.Errorf("guide.Archive.Materialize: entry %q escapes extraction dir", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("guide.Archive.Materialize: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("guide.Archive.Materialize: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("guide.Archive.Materialize: open entry %q: %w", entry.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("guide.Archive.Materialize: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("guide.Archive.Materialize: extract %q: %w", entry.Name, err)
	}
	return nil
}
