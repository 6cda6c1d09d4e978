package syncer

// ItemKind identifies what kind of resource an ItemResult refers to.
type ItemKind string

const (
	KindWallet ItemKind = "wallet"
	KindGuide  ItemKind = "guide"
)

// ItemResult is the explicit per-item outcome of a wallet or guide sync.
// Failures are collected instead of thrown: the engine isolates them and
// the caller decides what to log or alert on.
type ItemResult struct {
	Kind ItemKind
	// ID identifies the offending item: the normalized username for
	// wallets, the guide id for guides. Tokens are never recorded here.
	ID string
	// Err is nil for a successful or skipped item.
	Err error
	// Skipped marks items whose local copy was already current.
	Skipped bool
}

// Failed reports whether the item ended in an error.
func (r ItemResult) Failed() bool { return r.Err != nil }

// Report summarizes one synchronization run.
type Report struct {
	// Unchanged is true when the remote catalogue matched the persisted
	// manifest and the run stopped before touching any downstream resource.
	Unchanged bool
	// Trips is the number of trips retrieved from the catalogue,
	// after filtering, before pseudo-trip synthesis.
	Trips int

	WalletsSynced  int
	WalletsSkipped int
	WalletsFailed  int
	GuidesSynced   int
	GuidesSkipped  int
	GuidesFailed   int

	// Failures holds the result of every item that errored.
	Failures []ItemResult
}

func (r *Report) recordWallet(res ItemResult) {
	switch {
	case res.Failed():
		r.WalletsFailed++
		r.Failures = append(r.Failures, res)
	case res.Skipped:
		r.WalletsSkipped++
	default:
		r.WalletsSynced++
	}
}

func (r *Report) recordGuide(res ItemResult) {
	switch {
	case res.Failed():
		r.GuidesFailed++
		r.Failures = append(r.Failures, res)
	case res.Skipped:
		r.GuidesSkipped++
	default:
		r.GuidesSynced++
	}
}
