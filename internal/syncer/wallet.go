package syncer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/destinationbook/boatserver/internal/cache"
	"github.com/destinationbook/boatserver/internal/domain"
)

// walletSubdir is where wallet documents live under the content root.
const walletSubdir = "wallet"

func (e *Engine) walletResource(b domain.Booking) *cache.Resource {
	return cache.New(e.public, walletSubdir, b.WalletFilename())
}

// syncWallet refreshes one booking's wallet document when the local copy
// is provably older than the remote state.
//
// The staleness bound is max(trip.updated_at, booking.updated_at), and
// the written file is stamped with that same remote timestamp — never the
// fetch time — so the next run compares against the remote notion of
// freshness.
//
// Transport and mirroring failures are returned inside the ItemResult
// (isolated per booking). Timestamp and filesystem faults are returned as
// the second value and abort the run: defaulting a missing timestamp
// would erase staleness history, and a half-working filesystem leaves the
// cache in unknown state.
func (e *Engine) syncWallet(ctx context.Context, trip domain.Trip, booking domain.Booking) (ItemResult, error) {
	username, token := booking.Key()
	result := ItemResult{Kind: KindWallet, ID: username}

	effective, err := trip.EffectiveUpdatedAt(booking)
	if err != nil {
		return result, fmt.Errorf("syncer: wallet %s of trip %s: %w", username, trip.Reference, err)
	}

	res := e.walletResource(booking)
	stale, err := res.IsStale(effective)
	if err != nil {
		return result, err
	}
	if !stale {
		result.Skipped = true
		return result, nil
	}

	body, err := e.fetcher.Get(ctx, e.remote.WalletURL(), url.Values{
		"username":             {username},
		"authentication_token": {token},
		"device[uuid]":         {e.sync.DeviceUUID},
		"version":              {e.sync.ClientVersion},
	})
	if err != nil {
		result.Err = err
		return result, nil
	}

	doc, err := e.rewriter.Rewrite(ctx, string(body))
	if err != nil {
		result.Err = err
		return result, nil
	}

	res.Data = []byte(doc)
	if err := res.Write(); err != nil {
		return result, err
	}
	if err := res.SetMTime(effective); err != nil {
		return result, err
	}
	return result, nil
}
