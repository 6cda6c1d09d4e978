// Package metrics exposes Prometheus instrumentation for the mirror.
// Counters are owned by a Metrics value rather than package globals so
// tests can construct isolated registries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the sync engine and serving layer report to.
type Metrics struct {
	registry *prometheus.Registry

	// PagesFetched counts trip listing pages retrieved from the provider.
	PagesFetched prometheus.Counter
	// WalletsSynced/Skipped/Failed track the per-booking wallet pass.
	WalletsSynced  prometheus.Counter
	WalletsSkipped prometheus.Counter
	WalletsFailed  prometheus.Counter
	// GuidesSynced/Skipped/Failed track the per-guide archive pass.
	GuidesSynced  prometheus.Counter
	GuidesSkipped prometheus.Counter
	GuidesFailed  prometheus.Counter
	// AssetsMirrored counts embedded assets downloaded by the asset mirror.
	AssetsMirrored prometheus.Counter
	// ManifestWrites counts completed manifest persists.
	ManifestWrites prometheus.Counter
	// SyncRuns counts sync engine runs by outcome ("ok", "unchanged", "error").
	SyncRuns *prometheus.CounterVec
}

// New constructs a Metrics backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boatserver",
			Name:      name,
			Help:      help,
		})
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{
		registry:       reg,
		PagesFetched:   counter("trip_pages_fetched_total", "Trip listing pages retrieved from the provider."),
		WalletsSynced:  counter("wallets_synced_total", "Wallet documents fetched and written."),
		WalletsSkipped: counter("wallets_skipped_total", "Wallet syncs skipped because the local copy was current."),
		WalletsFailed:  counter("wallets_failed_total", "Wallet syncs that failed and were isolated."),
		GuidesSynced:   counter("guides_synced_total", "Guide archives fetched and written."),
		GuidesSkipped:  counter("guides_skipped_total", "Guide syncs skipped because the local copy was current."),
		GuidesFailed:   counter("guides_failed_total", "Guide syncs that failed and were isolated."),
		AssetsMirrored: counter("assets_mirrored_total", "Embedded assets downloaded into the local mirror."),
		ManifestWrites: counter("manifest_writes_total", "Manifest files persisted."),
	}

	m.SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boatserver",
		Name:      "sync_runs_total",
		Help:      "Synchronization runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(m.SyncRuns)

	return m
}

// Handler returns the HTTP handler serving this registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
