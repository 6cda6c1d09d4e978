// Package syncer implements the synchronization engine: paginated trip
// retrieval, manifest staleness gating, per-booking wallet refresh,
// per-guide archive mirroring, orphan-guide pseudo-trip synthesis, and
// the final manifest write.
//
// The run is a strict sequence driven by a single goroutine. Per-item
// failures during the wallet and guide passes are isolated into the run
// Report; only the catalogue fetch, the manifest write, timestamp faults,
// and filesystem faults abort a run.
package syncer

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/destinationbook/boatserver/internal/config"
	"github.com/destinationbook/boatserver/internal/metrics"
)

// Fetcher is the remote access the engine depends on.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// AssetRewriter mirrors the embedded assets of a JSON document and
// rewrites their URLs to the local host. LocalURL builds a local URL for
// a path without fetching anything; the engine uses it for locally
// generated documents such as template wallets.
type AssetRewriter interface {
	Rewrite(ctx context.Context, doc string) (string, error)
	LocalURL(path string) string
}

// Engine orchestrates one synchronization run at a time.
type Engine struct {
	remote   config.RemoteConfig
	sync     config.SyncConfig
	public   string // content root all mirrored files live under
	fetcher  Fetcher
	rewriter AssetRewriter
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New constructs the engine. The configuration struct is passed in
// explicitly at construction; the engine reads no ambient global state.
func New(cfg *config.Config, fetcher Fetcher, rewriter AssetRewriter, log *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		remote:   cfg.Remote,
		sync:     cfg.Sync,
		public:   cfg.Mirror.PublicRoot,
		fetcher:  fetcher,
		rewriter: rewriter,
		log:      log,
		metrics:  m,
	}
}

// Run performs one full synchronization pass:
//
//	catalogue fetch → manifest gate → wallet pass → guide pass →
//	orphan pseudo-trip synthesis → manifest write.
//
// A catalogue fetch failure aborts the run: nothing downstream can
// proceed from a partial trip list. The manifest gate compares the
// expected manifest content against the persisted one and stops early
// when nothing changed. The final manifest write is not isolated either:
// if it fails, the run fails, since a partial manifest would mislead
// every client of the mirror.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	trips, err := e.FetchAllTrips(ctx)
	if err != nil {
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	report.Trips = len(trips)

	expected, err := e.expectedManifest(trips)
	if err != nil {
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	if e.manifestResource(expected).UnmodifiedData() {
		report.Unchanged = true
		e.metrics.SyncRuns.WithLabelValues("unchanged").Inc()
		e.log.Info("catalogue unchanged, nothing to synchronize")
		return report, nil
	}

	// Wallet pass: strictly sequential over every (trip, booking) pair.
	// An error on one booking is recorded and must not prevent the rest.
	for ti := range trips {
		trip := &trips[ti]
		for _, booking := range trip.Bookings {
			res, err := e.syncWallet(ctx, *trip, booking)
			if err != nil {
				e.metrics.SyncRuns.WithLabelValues("error").Inc()
				return nil, err
			}
			report.recordWallet(res)
			switch {
			case res.Failed():
				e.metrics.WalletsFailed.Inc()
				e.log.Error("wallet sync failed",
					"trip", trip.Reference, "username", res.ID, "error", res.Err)
			case res.Skipped:
				e.metrics.WalletsSkipped.Inc()
			default:
				e.metrics.WalletsSynced.Inc()
			}
		}
	}

	// Guide pass: deduplicated across trips, same isolation policy.
	if err := e.syncGuides(ctx, trips, report); err != nil {
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	// Orphan guides become retrievable through synthesized content trips.
	trips, err = e.synthesizeOrphans(trips)
	if err != nil {
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := e.writeManifest(trips); err != nil {
		e.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	e.metrics.ManifestWrites.Inc()

	e.metrics.SyncRuns.WithLabelValues("ok").Inc()
	e.log.Info("synchronization complete",
		"trips", report.Trips,
		"wallets_synced", report.WalletsSynced,
		"wallets_skipped", report.WalletsSkipped,
		"wallets_failed", report.WalletsFailed,
		"guides_synced", report.GuidesSynced,
		"guides_skipped", report.GuidesSkipped,
		"guides_failed", report.GuidesFailed,
	)
	return report, nil
}
