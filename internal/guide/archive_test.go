package guide_test

import (
	"archive/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinationbook/boatserver/internal/domain"
	"github.com/destinationbook/boatserver/internal/guide"
)

// writeZip creates a zip file at path containing the given name→content
// entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- Materialize tests -----------------------------------------------------

func TestArchive_Materialize_ExtractsAllEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "guide_tiled.zip")
	writeZip(t, zipPath, map[string]string{
		"guide.json":       `{"name":"Paris"}`,
		"images/tile1.png": "png1",
	})

	a := guide.Archive{ZipPath: zipPath, ExtractDir: filepath.Join(dir, "web")}
	require.NoError(t, a.Materialize())

	content, err := os.ReadFile(filepath.Join(dir, "web", "guide.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Paris"}`, string(content))

	img, err := os.ReadFile(filepath.Join(dir, "web", "images", "tile1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png1", string(img))
}

func TestArchive_Materialize_StampsExtractionWithArchiveMtime(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "guide_tiled.zip")
	writeZip(t, zipPath, map[string]string{"guide.json": "{}"})

	generated := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(zipPath, generated, generated))

	a := guide.Archive{ZipPath: zipPath, ExtractDir: filepath.Join(dir, "web")}
	require.NoError(t, a.Materialize())

	info, err := os.Stat(a.ExtractDir)
	require.NoError(t, err)
	assert.True(t, info.ModTime().UTC().Equal(generated))
}

func TestArchive_Materialize_UpToDateIsNoop(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "guide_tiled.zip")
	writeZip(t, zipPath, map[string]string{"guide.json": "{}"})

	a := guide.Archive{ZipPath: zipPath, ExtractDir: filepath.Join(dir, "web")}
	require.NoError(t, a.Materialize())

	// Plant a marker file; a second Materialize must not wipe the dir.
	marker := filepath.Join(a.ExtractDir, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))
	// Re-stamp the dir, since writing the marker bumped its mtime anyway.
	zipInfo, err := os.Stat(zipPath)
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(a.ExtractDir, zipInfo.ModTime(), zipInfo.ModTime()))

	require.NoError(t, a.Materialize())
	assert.FileExists(t, marker)
}

func TestArchive_Materialize_ReextractsWhenArchiveNewer(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "guide_tiled.zip")
	writeZip(t, zipPath, map[string]string{"guide.json": `{"v":1}`})

	a := guide.Archive{ZipPath: zipPath, ExtractDir: filepath.Join(dir, "web")}
	require.NoError(t, a.Materialize())

	// Simulate a newer remote generation: rewrite the zip and bump its mtime
	// past the extraction's.
	writeZip(t, zipPath, map[string]string{"guide.json": `{"v":2}`})
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(zipPath, future, future))

	require.NoError(t, a.Materialize())

	content, err := os.ReadFile(filepath.Join(a.ExtractDir, "guide.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(content))
}

func TestArchive_Materialize_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../outside.txt": "escape"})

	a := guide.Archive{ZipPath: zipPath, ExtractDir: filepath.Join(dir, "web")}
	err := a.Materialize()

	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "outside.txt"))
}

// ---- Store tests -----------------------------------------------------------

func TestStore_ListAndContent(t *testing.T) {
	root := t.TempDir()
	s := guide.NewStore(root, discardLogger())

	writeZip(t, s.ZipPath("fr.paris"), map[string]string{
		guide.ContentFilename: `{"name":"Paris"}`,
	})
	generated := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(s.ZipPath("fr.paris"), generated, generated))

	require.NoError(t, s.MaterializeAll())

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "fr.paris", infos[0].ID)
	assert.Equal(t, "guides/fr.paris", infos[0].Path)
	assert.True(t, infos[0].Ready)
	assert.True(t, infos[0].UpdatedAt.Equal(generated))

	content, err := s.Content("fr.paris")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Paris"}`, string(content))
}

func TestStore_Ready_FalseBeforeExtraction(t *testing.T) {
	root := t.TempDir()
	s := guide.NewStore(root, discardLogger())

	writeZip(t, s.ZipPath("de.berlin"), map[string]string{guide.ContentFilename: "{}"})

	assert.False(t, s.Ready("de.berlin"))
}

func TestStore_Content_NotFound(t *testing.T) {
	s := guide.NewStore(t.TempDir(), discardLogger())

	_, err := s.Content("missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_IDs_EmptyRoot(t *testing.T) {
	s := guide.NewStore(t.TempDir(), discardLogger())

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
