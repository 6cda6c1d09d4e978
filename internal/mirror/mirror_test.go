package mirror_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinationbook/boatserver/internal/mirror"
)

// stubFetcher is a hand-written test double for mirror.Fetcher.
// It records every request and serves canned bodies keyed by bare URL.
type stubFetcher struct {
	bodies   map[string][]byte
	requests []fetchRequest
}

type fetchRequest struct {
	url    string
	params url.Values
}

func (s *stubFetcher) Get(_ context.Context, rawURL string, params url.Values) ([]byte, error) {
	s.requests = append(s.requests, fetchRequest{url: rawURL, params: params})
	body, ok := s.bodies[rawURL]
	if !ok {
		return nil, fmt.Errorf("unexpected fetch of %s", rawURL)
	}
	return body, nil
}

var _ mirror.Fetcher = (*stubFetcher)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMirror_Rewrite_RoundTrip(t *testing.T) {
	root := t.TempDir()
	f := &stubFetcher{bodies: map[string][]byte{
		"http://cdn.example.com/styles/main.css": []byte("body{}"),
	}}
	m := mirror.New(f, "10.0.0.5.xip.io", 0, root, discardLogger())

	doc := `{"style":"http://cdn.example.com/styles/main.css?a=1&b=2"}`
	got, err := m.Rewrite(context.Background(), doc)
	require.NoError(t, err)

	// The original URL must be gone, replaced by exactly one local URL.
	assert.NotContains(t, got, "cdn.example.com")
	assert.Equal(t, 1, strings.Count(got, "http://10.0.0.5.xip.io/styles/main.css"))

	// The asset was persisted under the content root at the URL's path.
	data, err := os.ReadFile(filepath.Join(root, "styles", "main.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))

	// The signed query parameters were forwarded with the fetch.
	require.Len(t, f.requests, 1)
	assert.Equal(t, "1", f.requests[0].params.Get("a"))
	assert.Equal(t, "2", f.requests[0].params.Get("b"))
}

func TestMirror_Rewrite_ExistingAssetNotRefetched(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "img", "logo.png"), []byte("png"), 0o644))

	f := &stubFetcher{bodies: map[string][]byte{}}
	m := mirror.New(f, "local.test", 0, root, discardLogger())

	got, err := m.Rewrite(context.Background(), `{"logo":"http://cdn.example.com/img/logo.png"}`)
	require.NoError(t, err)

	// No fetch happened, but the URL is still rewritten.
	assert.Empty(t, f.requests)
	assert.Contains(t, got, "http://local.test/img/logo.png")
}

func TestMirror_Rewrite_PrefixURLsDoNotCorruptLongerOnes(t *testing.T) {
	root := t.TempDir()
	f := &stubFetcher{bodies: map[string][]byte{
		"http://cdn.example.com/a":      []byte("short"),
		"http://cdn.example.com/ab.png": []byte("long"),
	}}
	m := mirror.New(f, "local.test", 0, root, discardLogger())

	// The first URL is an exact prefix of the second; a prefix-based
	// rewrite would corrupt the longer URL.
	doc := `{"short":"http://cdn.example.com/a","long":"http://cdn.example.com/ab.png"}`
	got, err := m.Rewrite(context.Background(), doc)
	require.NoError(t, err)

	assert.Contains(t, got, `"short":"http://local.test/a"`)
	assert.Contains(t, got, `"long":"http://local.test/ab.png"`)
}

func TestMirror_Rewrite_DuplicateURLFetchedOnce(t *testing.T) {
	root := t.TempDir()
	f := &stubFetcher{bodies: map[string][]byte{
		"http://cdn.example.com/shared.js": []byte("js"),
	}}
	m := mirror.New(f, "local.test", 0, root, discardLogger())

	doc := `{"a":"http://cdn.example.com/shared.js","b":"http://cdn.example.com/shared.js"}`
	got, err := m.Rewrite(context.Background(), doc)
	require.NoError(t, err)

	assert.Len(t, f.requests, 1)
	assert.Equal(t, 2, strings.Count(got, "http://local.test/shared.js"))
}

func TestMirror_Rewrite_NonDefaultPortInRewrittenHost(t *testing.T) {
	root := t.TempDir()
	f := &stubFetcher{bodies: map[string][]byte{
		"https://cdn.example.com/x.css": []byte("x"),
	}}
	m := mirror.New(f, "local.test", 8080, root, discardLogger())

	got, err := m.Rewrite(context.Background(), `{"x":"https://cdn.example.com/x.css"}`)
	require.NoError(t, err)

	assert.Contains(t, got, "http://local.test:8080/x.css")
}

func TestMirror_Rewrite_FailedFetchFailsTheCall(t *testing.T) {
	root := t.TempDir()
	f := &stubFetcher{bodies: map[string][]byte{}} // every fetch errors
	m := mirror.New(f, "local.test", 0, root, discardLogger())

	_, err := m.Rewrite(context.Background(), `{"x":"http://cdn.example.com/missing.css"}`)

	assert.Error(t, err)
}

func TestMirror_Rewrite_NoURLs(t *testing.T) {
	m := mirror.New(&stubFetcher{}, "local.test", 0, t.TempDir(), discardLogger())

	doc := `{"plain":"no links here"}`
	got, err := m.Rewrite(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, doc, got)
}
