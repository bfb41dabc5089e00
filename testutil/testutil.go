package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/stretchr/testify/require"
)

// SetupTestDB creates a test database and returns it.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// SetupSeededDB creates a test database holding Cards.
func SetupSeededDB(t *testing.T) *db.DB {
	t.Helper()
	database := SetupTestDB(t)
	require.NoError(t, database.UpsertCards(Cards()))
	return database
}

// Ptr returns a pointer to the value.
func Ptr[T any](v T) *T {
	return &v
}

// Oracle ids of the fixture cards.
const (
	BoltID      = "4457ed35-7c10-48c8-9776-456485fdf070"
	CounterID   = "9f5a1d2e-3c4b-4a8e-8b1f-2f0d6c7e5a10"
	GoyfID      = "2a1e4c6b-8d9f-4e3a-b5c7-1d2e3f4a5b6c"
	CharmID     = "7c8d9e0f-1a2b-4c3d-9e4f-5a6b7c8d9e0f"
	SolRingID   = "6ad8011d-3471-4369-9d68-b264cc027487"
	BearsID     = "14c8bb1b-7b4c-4b1a-a8a3-0f2b8e2f7d11"
	SerraID     = "3d0c1e2f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"
	EowynID     = "b1d3c7e2-5f6a-4e8b-9c0d-1e2f3a4b5c6d"
	fixtureDate = "2006-01-02"
)

func day(s string) time.Time {
	t, err := time.Parse(fixtureDate, s)
	if err != nil {
		panic(err)
	}
	return t
}

func printing(id, set, number, released, artist string) db.Printing {
	return db.Printing{
		ID:              id,
		SetCode:         set,
		CollectorNumber: number,
		ReleasedAt:      day(released),
		Rarity:          "common",
		Artist:          artist,
	}
}

func legal(formats ...string) []db.Legality {
	all := []string{"standard", "modern", "legacy", "vintage"}
	var out []db.Legality
	for _, f := range all {
		l := db.Legality{Format: f}
		for _, want := range formats {
			if want == f {
				l.Legal = true
			}
		}
		out = append(out, l)
	}
	return out
}

// AccentedCards returns cards whose text has non-ASCII capitals.
func AccentedCards() []db.CardInput {
	return []db.CardInput{
		{
			Card: db.Card{
				OracleID: EowynID, Name: "Éowyn, Lady of Rohan", ManaCost: Ptr("{2}{W}"), TypeLine: "Legendary Creature — Human Noble",
				OracleText: Ptr("At the beginning of combat on your turn, Éowyn, Lady of Rohan gives target creature first strike until end of turn."),
				Colors:     []string{"W"},
				Power:      Ptr("2"), PowerValue: Ptr(2.0),
				Toughness: Ptr("4"), ToughnessValue: Ptr(4.0),
				ManaValue: 3,
			},
			Legalities: legal("legacy", "vintage"),
			Printings: []db.Printing{
				printing("eowyn-ltr", "ltr", "10", "2023-06-23", "Ørjan Ruttenborg"),
			},
		},
	}
}

// Cards returns a small, fixed set of cards covering every searchable field.
func Cards() []db.CardInput {
	return []db.CardInput{
		{
			Card: db.Card{
				OracleID: BoltID, Name: "Lightning Bolt", ManaCost: Ptr("{R}"), TypeLine: "Instant",
				OracleText: Ptr("Lightning Bolt deals 3 damage to any target."), Colors: []string{"R"}, ManaValue: 1,
			},
			Legalities: legal("modern", "legacy", "vintage"),
			Printings: []db.Printing{
				printing("bolt-lea", "lea", "161", "1993-08-05", "Christopher Rush"),
				printing("bolt-m10", "m10", "146", "2009-07-17", "Christopher Rush"),
				printing("bolt-2xm", "2xm", "137", "2020-08-07", "Christopher Moeller"),
			},
		},
		{
			Card: db.Card{
				OracleID: CounterID, Name: "Counterspell", ManaCost: Ptr("{U}{U}"), TypeLine: "Instant",
				OracleText: Ptr("Counter target spell."), Colors: []string{"U"}, ManaValue: 2,
			},
			Legalities: legal("legacy", "vintage"),
			Printings: []db.Printing{
				printing("counter-lea", "lea", "54", "1993-08-05", "Mark Poole"),
			},
		},
		{
			Card: db.Card{
				OracleID: GoyfID, Name: "Tarmogoyf", ManaCost: Ptr("{1}{G}"), TypeLine: "Creature — Lhurgoyf",
				OracleText: Ptr("Tarmogoyf's power is equal to the number of card types among cards in all graveyards and its toughness is equal to that number plus 1."),
				Colors:     []string{"G"},
				Power:      Ptr("*"), PowerValue: Ptr(0.0),
				Toughness: Ptr("1+*"), ToughnessValue: Ptr(1.0),
				ManaValue: 2,
			},
			Legalities: legal("modern", "legacy", "vintage"),
			Printings: []db.Printing{
				printing("goyf-fut", "fut", "153", "2007-05-04", "Justin Murray"),
			},
		},
		{
			Card: db.Card{
				OracleID: CharmID, Name: "Boros Charm", ManaCost: Ptr("{R}{W}"), TypeLine: "Instant",
				OracleText: Ptr("Choose one —\n• Boros Charm deals 4 damage to target player or planeswalker.\n• Permanents you control gain indestructible until end of turn.\n• Target creature gains double strike until end of turn."),
				Colors:     []string{"R", "W"}, ManaValue: 2,
			},
			Legalities: legal("modern", "legacy", "vintage"),
			Printings: []db.Printing{
				printing("charm-gtc", "gtc", "148", "2013-02-01", "Zoltan Boros"),
			},
		},
		{
			Card: db.Card{
				OracleID: SolRingID, Name: "Sol Ring", ManaCost: Ptr("{1}"), TypeLine: "Artifact",
				OracleText: Ptr("{T}: Add {C}{C}."), Colors: []string{}, ManaValue: 1,
			},
			Legalities: legal("vintage"),
			Printings: []db.Printing{
				printing("solring-lea", "lea", "270", "1993-08-05", "Mark Tedin"),
			},
		},
		{
			Card: db.Card{
				OracleID: BearsID, Name: "Grizzly Bears", ManaCost: Ptr("{1}{G}"), TypeLine: "Creature — Bear",
				Colors: []string{"G"},
				Power:  Ptr("2"), PowerValue: Ptr(2.0),
				Toughness: Ptr("2"), ToughnessValue: Ptr(2.0),
				ManaValue: 2,
			},
			Legalities: legal("legacy", "vintage"),
			Printings: []db.Printing{
				printing("bears-lea", "lea", "198", "1993-08-05", "Jeff A. Menges"),
			},
		},
		{
			Card: db.Card{
				OracleID: SerraID, Name: "Serra Angel", ManaCost: Ptr("{3}{W}{W}"), TypeLine: "Creature — Angel",
				OracleText: Ptr("Flying\nVigilance"), Colors: []string{"W"},
				Power:      Ptr("4"), PowerValue: Ptr(4.0),
				Toughness: Ptr("4"), ToughnessValue: Ptr(4.0),
				ManaValue: 5,
			},
			Legalities: legal("legacy", "vintage"),
			Printings: []db.Printing{
				printing("serra-lea", "lea", "39", "1993-08-05", "Douglas Shuler"),
			},
		},
	}
}
