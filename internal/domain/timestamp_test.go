package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinationbook/boatserver/internal/domain"
)

func TestMostRecent_BothSet(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	got, err := domain.MostRecent(earlier, later)
	require.NoError(t, err)
	assert.Equal(t, later, got)

	// Order of arguments must not matter.
	got, err = domain.MostRecent(later, earlier)
	require.NoError(t, err)
	assert.Equal(t, later, got)
}

func TestMostRecent_Equal(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := domain.MostRecent(ts, ts)
	require.NoError(t, err)
	assert.Equal(t, ts, got)
}

func TestMostRecent_OneZero_ReturnsTheOther(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := domain.MostRecent(time.Time{}, ts)
	require.NoError(t, err)
	assert.Equal(t, ts, got)

	got, err = domain.MostRecent(ts, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, ts, got)
}

func TestMostRecent_BothZero_Errors(t *testing.T) {
	_, err := domain.MostRecent(time.Time{}, time.Time{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTimeToCompare)
	assert.Contains(t, err.Error(), "no time given to compare")
}

func TestBooking_Key_Normalizes(t *testing.T) {
	b := domain.Booking{
		Username:            "  traveller42 ",
		AuthenticationToken: " abc-def ",
	}

	username, token := b.Key()

	assert.Equal(t, "TRAVELLER42", username)
	assert.Equal(t, "ABC-DEF", token)
}

func TestBooking_WalletFilename(t *testing.T) {
	b := domain.Booking{Username: "anna", AuthenticationToken: "tok123"}

	assert.Equal(t, "ANNA-TOK123.json", b.WalletFilename())
}

func TestGuideRef_GuestToken(t *testing.T) {
	g := domain.GuideRef{ID: "fr.paris.2026"}

	// Dots become dashes, everything uppercased, prefix preserved.
	assert.Equal(t, "DB-FR-PARIS-2026", g.GuestToken("db-"))
}

func TestTrip_EffectiveUpdatedAt(t *testing.T) {
	tripTS := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	bookingTS := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	trip := domain.Trip{UpdatedAt: tripTS}
	booking := domain.Booking{UpdatedAt: bookingTS}

	got, err := trip.EffectiveUpdatedAt(booking)
	require.NoError(t, err)
	assert.Equal(t, bookingTS, got)
}
