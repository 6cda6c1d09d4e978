package syncer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/destinationbook/boatserver/internal/domain"
)

// tripsPage is the shape of one listing page from the provider.
type tripsPage struct {
	Trips []domain.Trip `json:"trips"`
}

// FetchAllTrips retrieves the complete trip catalogue: page 0, 1, 2, ...
// of the listing endpoint, stopping at the first page that yields zero
// trips, concatenated in request order.
//
// The optional reference filter is applied only after pagination
// completes — remote page boundaries are independent of the filter, so
// filtering early would truncate the listing.
//
// Any transport error aborts the whole retrieval: a partial trip list
// must never be treated as complete.
func (e *Engine) FetchAllTrips(ctx context.Context) ([]domain.Trip, error) {
	var all []domain.Trip

	for page := 0; ; page++ {
		body, err := e.fetcher.Get(ctx, e.remote.TripsURL(), url.Values{
			"authentication_token": {e.remote.APIKey},
			"page":                 {strconv.Itoa(page)},
		})
		if err != nil {
			return nil, fmt.Errorf("syncer: fetch trips page %d: %w", page, err)
		}
		e.metrics.PagesFetched.Inc()

		// The provider signals "no more pages" with an empty trips array.
		// An entirely empty body is treated the same way.
		if len(bytes.TrimSpace(body)) == 0 {
			break
		}

		var p tripsPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("syncer: parse trips page %d: %w", page, err)
		}
		if len(p.Trips) == 0 {
			break
		}
		all = append(all, p.Trips...)
	}

	if e.sync.ReferenceFilter != "" {
		filtered := all[:0]
		for _, t := range all {
			if strings.HasPrefix(t.Reference, e.sync.ReferenceFilter) {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}

	return all, nil
}
