package syncer

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/destinationbook/boatserver/internal/domain"
)

// walletDocument is the fixed template persisted for synthesized guest
// bookings. It mirrors the shape real wallets use, so the serving layer
// and clients treat synthetic content trips exactly like real ones.
type walletDocument struct {
	Reference     string            `json:"reference"`
	FileCount     int               `json:"file_count"`
	FilesSize     int64             `json:"files_size"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Token         string            `json:"token"`
	StyleURL      string            `json:"style_url"`
	PrintStyleURL string            `json:"print_style_url"`
	Guides        []domain.GuideRef `json:"guides"`
}

// pseudoTripsFor derives a synthetic content trip for every orphan guide:
// a guide that appears in the catalogue without any booking-bearing trip
// attaching it. The derivation is pure — same input catalogue, same
// output trips — which is what makes the manifest gate's expected-content
// comparison sound.
func (e *Engine) pseudoTripsFor(trips []domain.Trip) []domain.Trip {
	attached := make(map[string]struct{})
	for _, t := range trips {
		if len(t.Bookings) == 0 {
			continue
		}
		for _, g := range t.Guides {
			attached[g.ID] = struct{}{}
		}
	}

	var (
		pseudo []domain.Trip
		seen   = make(map[string]struct{})
	)
	for _, t := range trips {
		for _, g := range t.Guides {
			if _, ok := attached[g.ID]; ok {
				continue
			}
			if _, ok := seen[g.ID]; ok {
				continue
			}
			seen[g.ID] = struct{}{}

			booking := domain.Booking{
				Username:            e.sync.GuestUsername,
				AuthenticationToken: g.GuestToken(e.sync.ClientReference),
				UpdatedAt:           g.GeneratedAt,
			}
			pseudo = append(pseudo, domain.Trip{
				Reference:   booking.AuthenticationToken,
				Name:        g.Name,
				Description: g.Description,
				Language:    g.Language,
				Type:        domain.TripTypeContent,
				UpdatedAt:   g.GeneratedAt,
				Bookings:    []domain.Booking{booking},
				Guides:      []domain.GuideRef{g},
			})
		}
	}
	return pseudo
}

// synthesizeOrphans appends a synthetic trip per orphan guide and writes
// each synthetic booking's wallet document directly — the content is
// generated locally, so the normal remote-fetch path is bypassed. The
// wallet file is stamped with the guide's generation time and rewritten
// only when stale, keeping repeat runs write-free.
func (e *Engine) synthesizeOrphans(trips []domain.Trip) ([]domain.Trip, error) {
	for _, pt := range e.pseudoTripsFor(trips) {
		g := pt.Guides[0]
		booking := pt.Bookings[0]

		if g.GeneratedAt.IsZero() {
			return nil, fmt.Errorf("syncer: orphan guide %s has no generation time: %w", g.ID, domain.ErrNoTimeToCompare)
		}

		res := e.walletResource(booking)
		stale, err := res.IsStale(g.GeneratedAt)
		if err != nil {
			return nil, err
		}
		if stale {
			doc, err := json.Marshal(e.templateWallet(g, booking.AuthenticationToken))
			if err != nil {
				return nil, fmt.Errorf("syncer: template wallet for guide %s: %w", g.ID, err)
			}
			res.Data = doc
			if err := res.Write(); err != nil {
				return nil, err
			}
			if err := res.SetMTime(g.GeneratedAt); err != nil {
				return nil, err
			}
			e.log.Info("synthesized guest wallet", "guide_id", g.ID, "reference", pt.Reference)
		}

		trips = append(trips, pt)
	}
	return trips, nil
}

func (e *Engine) templateWallet(g domain.GuideRef, token string) walletDocument {
	return walletDocument{
		Reference:     token,
		FileCount:     1,
		FilesSize:     g.Size,
		Name:          g.Name,
		Description:   g.Description,
		Token:         token,
		StyleURL:      e.rewriter.LocalURL("/styles/wallet.css"),
		PrintStyleURL: e.rewriter.LocalURL("/styles/wallet_print.css"),
		Guides:        []domain.GuideRef{g},
	}
}
