package syncer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/destinationbook/boatserver/internal/cache"
	"github.com/destinationbook/boatserver/internal/domain"
)

// syncGuides runs the guide pass: every guide referenced by any trip,
// deduplicated by id so a guide shared between trips is fetched once.
// All in-memory references to the same guide are rewritten together, so
// every trip in the manifest ends up pointing at the local copy.
func (e *Engine) syncGuides(ctx context.Context, trips []domain.Trip, report *Report) error {
	var order []string
	instances := make(map[string][]*domain.GuideRef)
	for ti := range trips {
		for gi := range trips[ti].Guides {
			g := &trips[ti].Guides[gi]
			if _, ok := instances[g.ID]; !ok {
				order = append(order, g.ID)
			}
			instances[g.ID] = append(instances[g.ID], g)
		}
	}

	for _, id := range order {
		res, err := e.syncGuide(ctx, instances[id])
		if err != nil {
			return err
		}
		report.recordGuide(res)
		switch {
		case res.Failed():
			e.metrics.GuidesFailed.Inc()
			e.log.Error("guide sync failed", "guide_id", res.ID, "error", res.Err)
		case res.Skipped:
			e.metrics.GuidesSkipped.Inc()
		default:
			e.metrics.GuidesSynced.Inc()
		}
	}
	return nil
}

// syncGuide refreshes one unique guide archive. The local path is the
// URL's path component under the content root; the query string carries
// only temporary signed-access credentials and is dropped from the path
// but forwarded as request parameters on the fetch.
//
// On success (and on a skip of an already-current archive) every
// in-memory reference to the guide has its url rewritten to the
// path-only form, so the persisted manifest never depends on an expiring
// signature. On failure the guide keeps its remote URL and stays in its
// trips' guide lists: a later run retries it.
func (e *Engine) syncGuide(ctx context.Context, refs []*domain.GuideRef) (ItemResult, error) {
	g := refs[0]
	result := ItemResult{Kind: KindGuide, ID: g.ID}

	if g.GeneratedAt.IsZero() {
		return result, fmt.Errorf("syncer: guide %s has no generation time: %w", g.ID, domain.ErrNoTimeToCompare)
	}

	u, err := url.Parse(g.URL)
	if err != nil {
		result.Err = fmt.Errorf("parse guide url: %w", err)
		return result, nil
	}

	res := cache.New(e.public, u.Path)
	stale, err := res.IsStale(g.GeneratedAt)
	if err != nil {
		return result, err
	}
	if !stale {
		result.Skipped = true
		rewriteGuideURLs(refs, u.Path)
		return result, nil
	}

	if !u.IsAbs() {
		result.Err = fmt.Errorf("guide url %q is not absolute", g.URL)
		return result, nil
	}

	body, err := e.fetcher.Get(ctx, bareURL(u), u.Query())
	if err != nil {
		result.Err = err
		return result, nil
	}

	res.Data = body
	if err := res.Write(); err != nil {
		return result, err
	}
	if err := res.SetMTime(g.GeneratedAt); err != nil {
		return result, err
	}

	rewriteGuideURLs(refs, u.Path)
	return result, nil
}

func rewriteGuideURLs(refs []*domain.GuideRef, path string) {
	for _, ref := range refs {
		ref.URL = path
	}
}

func bareURL(u *url.URL) string {
	b := *u
	b.RawQuery = ""
	b.Fragment = ""
	return b.String()
}
