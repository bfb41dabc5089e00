package db_test

import (
	"testing"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndGetCard(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	card, err := d.GetCard(testutil.GoyfID)
	require.NoError(t, err)
	assert.Equal(t, "Tarmogoyf", card.Name)
	assert.Equal(t, "{1}{G}", *card.ManaCost)
	assert.Equal(t, []string{"G"}, card.Colors)
	assert.Equal(t, "*", *card.Power)
	assert.Equal(t, 0.0, *card.PowerValue)
	assert.Equal(t, "1+*", *card.Toughness)
	assert.Equal(t, 1.0, *card.ToughnessValue)
	assert.Equal(t, 2.0, card.ManaValue)
}

func TestGetCardNullableFields(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	card, err := d.GetCard(testutil.BoltID)
	require.NoError(t, err)
	assert.Nil(t, card.Power)
	assert.Nil(t, card.PowerValue)
	assert.Nil(t, card.Toughness)

	ring, err := d.GetCard(testutil.SolRingID)
	require.NoError(t, err)
	assert.Empty(t, ring.Colors)
}

func TestGetCardNotFound(t *testing.T) {
	d := testutil.SetupTestDB(t)
	_, err := d.GetCard("missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFindCardByName(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	card, err := d.FindCardByName("lightning BOLT")
	require.NoError(t, err)
	assert.Equal(t, testutil.BoltID, card.OracleID)

	_, err = d.FindCardByName("Lightning")
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.UpsertCards(testutil.AccentedCards()))
	card, err = d.FindCardByName("ÉOWYN, LADY OF ROHAN")
	require.NoError(t, err)
	assert.Equal(t, testutil.EowynID, card.OracleID)
}

func TestUpsertReplacesCard(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	in := testutil.Cards()[0]
	in.Card.OracleText = testutil.Ptr("Lightning Bolt deals 3 damage to any target. (Errata)")
	in.Legalities = []db.Legality{{Format: "Pauper", Legal: true}}
	in.Printings = nil
	require.NoError(t, d.UpsertCards([]db.CardInput{in}))

	card, err := d.GetCard(testutil.BoltID)
	require.NoError(t, err)
	assert.Contains(t, *card.OracleText, "(Errata)")

	legalities, err := d.GetLegalities(testutil.BoltID)
	require.NoError(t, err)
	assert.Equal(t, []db.Legality{{Format: "pauper", Legal: true}}, legalities)

	// Printings are upserted, never cleared.
	printings, err := d.GetPrintings(testutil.BoltID, 0)
	require.NoError(t, err)
	assert.Len(t, printings, 3)
}

func TestUpsertRequiresOracleID(t *testing.T) {
	d := testutil.SetupTestDB(t)
	err := d.UpsertCards([]db.CardInput{{Card: db.Card{Name: "Nameless"}}})
	assert.Error(t, err)

	s, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cards)
}

func TestUpsertEmptyBatch(t *testing.T) {
	d := testutil.SetupTestDB(t)
	assert.NoError(t, d.UpsertCards(nil))
}

func TestGetPrintingsNewestFirst(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	printings, err := d.GetPrintings(testutil.BoltID, 0)
	require.NoError(t, err)
	require.Len(t, printings, 3)
	assert.Equal(t, "2xm", printings[0].SetCode)
	assert.Equal(t, "m10", printings[1].SetCode)
	assert.Equal(t, "lea", printings[2].SetCode)
	assert.Equal(t, 1993, printings[2].ReleasedAt.Year())
	assert.Equal(t, testutil.BoltID, printings[0].OracleID)

	latest, err := d.GetPrintings(testutil.BoltID, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "Christopher Moeller", latest[0].Artist)
}

func TestGetLegalities(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	legalities, err := d.GetLegalities(testutil.CounterID)
	require.NoError(t, err)
	assert.Equal(t, []db.Legality{
		{Format: "legacy", Legal: true},
		{Format: "modern", Legal: false},
		{Format: "standard", Legal: false},
		{Format: "vintage", Legal: true},
	}, legalities)
}
