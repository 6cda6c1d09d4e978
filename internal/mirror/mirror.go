// Package mirror scans JSON payloads for embedded absolute URLs, fetches
// each referenced asset into the local content root exactly once, and
// rewrites the payload so every URL points at the local mirror host.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/destinationbook/boatserver/internal/cache"
)

// Fetcher is the single remote operation the mirror depends on. Defined
// here, in the consumer package, so tests can inject a stub without a
// network.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// urlPattern matches absolute http/https URLs embedded in a JSON text.
// The character class stops at quotes, backslashes, and whitespace so a
// match never swallows the surrounding JSON syntax.
var urlPattern = regexp.MustCompile(`https?://[^\s"'\\<>]+`)

// Mirror rewrites payloads against a configured local host and content
// root. The mapping from source URL to local path is deterministic: the
// URL's path component below the content root, query dropped.
type Mirror struct {
	fetcher    Fetcher
	localHost  string
	localPort  int // appended to the rewritten host when not 0 or 80
	publicRoot string
	log        *slog.Logger
}

// New constructs a Mirror writing assets under publicRoot and rewriting
// URLs to point at localHost (with localPort when it is a non-default
// port).
func New(fetcher Fetcher, localHost string, localPort int, publicRoot string, log *slog.Logger) *Mirror {
	return &Mirror{
		fetcher:    fetcher,
		localHost:  localHost,
		localPort:  localPort,
		publicRoot: publicRoot,
		log:        log,
	}
}

// Rewrite returns doc with every embedded absolute URL replaced by its
// local counterpart, downloading each referenced asset first unless it is
// already present in the content root. A failed asset fetch fails the
// whole call: the caller treats the document as one unit.
func (m *Mirror) Rewrite(ctx context.Context, doc string) (string, error) {
	found := m.extract(doc)

	for _, raw := range found {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("mirror.Rewrite: parse %q: %w", raw, err)
		}
		if err := m.fetchAsset(ctx, u); err != nil {
			return "", err
		}
	}

	// Replace longer URLs first so a URL that is a prefix of another is
	// never substituted inside the longer one's occurrences.
	sort.Slice(found, func(i, j int) bool { return len(found[i]) > len(found[j]) })

	for _, raw := range found {
		u, _ := url.Parse(raw)
		doc = strings.ReplaceAll(doc, raw, m.LocalURL(u.Path))
	}
	return doc, nil
}

// extract returns the unique absolute URLs in doc, in first-seen order.
func (m *Mirror) extract(doc string) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, span := range urlPattern.FindAllStringIndex(doc, -1) {
		raw := doc[span[0]:span[1]]
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		found = append(found, raw)
	}
	return found
}

// fetchAsset downloads the asset behind u into the content root unless a
// file already exists at the derived local path. The URL's own query
// parameters are forwarded as request parameters, which is what carries
// signed-access credentials for protected assets.
func (m *Mirror) fetchAsset(ctx context.Context, u *url.URL) error {
	res := cache.New(m.publicRoot, u.Path)
	if res.Exists() {
		return nil
	}

	body, err := m.fetcher.Get(ctx, stripQuery(u), u.Query())
	if err != nil {
		return fmt.Errorf("mirror: fetch asset %s: %w", u.Redacted(), err)
	}

	res.Data = body
	if err := res.Write(); err != nil {
		return fmt.Errorf("mirror: store asset %s: %w", u.Path, err)
	}
	m.log.Debug("asset mirrored", "url", u.Redacted(), "path", res.Path)
	return nil
}

// LocalURL builds the rewritten URL for an asset path: the configured
// local host (plus non-default port) with the asset's original path.
func (m *Mirror) LocalURL(path string) string {
	host := m.localHost
	if m.localPort != 0 && m.localPort != 80 {
		host = fmt.Sprintf("%s:%d", host, m.localPort)
	}
	return "http://" + host + path
}

func stripQuery(u *url.URL) string {
	bare := *u
	bare.RawQuery = ""
	bare.Fragment = ""
	return bare.String()
}
