package scryfall

import (
	"os"
	"strings"
	"testing"

	"github.com/bakert/surveilrise/internal/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFixture(t *testing.T, limit int) *Decoded {
	t.Helper()
	f, err := os.Open("testdata/cards.json")
	require.NoError(t, err)
	defer f.Close()

	decoded, err := Decode(f, limit)
	require.NoError(t, err)
	return decoded
}

func TestDecode(t *testing.T) {
	decoded := decodeFixture(t, 0)
	require.Len(t, decoded.Entries, 5)
	assert.Equal(t, []string{"Mystery Art Card"}, decoded.Skipped)

	bolt := decoded.Entries[0]
	assert.Equal(t, "4457ed35-7c10-48c8-9776-456485fdf070", bolt.Card.OracleID)
	assert.Equal(t, "Lightning Bolt", bolt.Card.Name)
	assert.Equal(t, "{R}", *bolt.Card.ManaCost)
	assert.Equal(t, []string{"R"}, bolt.Card.Colors)
	assert.Equal(t, 1.0, bolt.Card.ManaValue)
	assert.Nil(t, bolt.Card.Power)
	assert.Nil(t, bolt.Card.PowerValue)

	assert.Equal(t, "bolt-lea", bolt.Printing.ID)
	assert.Equal(t, "lea", bolt.Printing.SetCode)
	assert.Equal(t, 1993, bolt.Printing.ReleasedAt.Year())
	assert.Equal(t, "Christopher Rush", bolt.Printing.Artist)
	require.NotNil(t, bolt.Printing.ImageURL)
	assert.Contains(t, *bolt.Printing.ImageURL, "border_crop")
	assert.Equal(t, 450.0, *bolt.Printing.Prices.USD)
	assert.Equal(t, 300.10, *bolt.Printing.Prices.EUR)
	assert.Nil(t, bolt.Printing.Prices.USDFoil)
	assert.Nil(t, bolt.Printing.Prices.Tix)

	assert.Len(t, bolt.Legalities, 4)
	legal := map[string]bool{}
	for _, l := range bolt.Legalities {
		legal[l.Format] = l.Legal
	}
	assert.Equal(t, map[string]bool{"standard": false, "modern": true, "legacy": true, "vintage": true}, legal)
}

func TestDecodeMultiFaced(t *testing.T) {
	decoded := decodeFixture(t, 0)

	delver := decoded.Entries[2]
	assert.Equal(t, "{U} // ", *delver.Card.ManaCost)
	assert.True(t, strings.HasSuffix(*delver.Card.OracleText, "\n//\nFlying"))
	assert.Equal(t, []string{"U"}, delver.Card.Colors)
	assert.Equal(t, "1", *delver.Card.Power)
	assert.Equal(t, 1.0, *delver.Card.PowerValue)
	require.NotNil(t, delver.Printing.ImageURL)
	assert.Contains(t, *delver.Printing.ImageURL, "delver")

	reversible := decoded.Entries[4]
	assert.Equal(t, "c9e2a2b4-1e0a-4d5c-9f3b-7a1d2e3f4a5b", reversible.Card.OracleID)
	assert.Equal(t, "c9e2a2b4-1e0a-4d5c-9f3b-7a1d2e3f4a5b", reversible.Printing.OracleID)
}

func TestDecodeStats(t *testing.T) {
	decoded := decodeFixture(t, 0)

	goyf := decoded.Entries[3]
	assert.Equal(t, "*", *goyf.Card.Power)
	assert.Equal(t, 0.0, *goyf.Card.PowerValue)
	assert.Equal(t, "1+*", *goyf.Card.Toughness)
	assert.Equal(t, stat.Parse("1+*"), *goyf.Card.ToughnessValue)
	assert.Nil(t, goyf.Printing.Prices.USD)
}

func TestDecodeLimit(t *testing.T) {
	decoded := decodeFixture(t, 2)
	assert.Len(t, decoded.Entries, 2)
	assert.Empty(t, decoded.Skipped)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"not an array", `{"object": "card"}`},
		{"element not an object", `[1]`},
		{"bad release date", `[{"id": "x", "oracle_id": "y", "name": "Bad", "released_at": "soon"}]`},
		{"missing printing id", `[{"oracle_id": "y", "name": "Bad", "released_at": "2020-01-01"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input), 0)
			assert.Error(t, err)
		})
	}
}
