package db_test

import (
	"testing"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeta(t *testing.T) {
	d := testutil.SetupTestDB(t)

	_, err := d.GetMeta(db.MetaSource)
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.SetMeta(db.MetaSource, "first"))
	require.NoError(t, d.SetMeta(db.MetaSource, "second"))

	v, err := d.GetMeta(db.MetaSource)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestIngestRun(t *testing.T) {
	d := testutil.SetupTestDB(t)

	_, err := d.LastIngestRun()
	assert.ErrorIs(t, err, db.ErrNotFound)

	run, err := d.StartIngestRun("default_cards")
	require.NoError(t, err)
	assert.Len(t, run.ID, 26)

	last, err := d.LastIngestRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
	assert.Nil(t, last.FinishedAt)

	require.NoError(t, d.FinishIngestRun(run.ID, 7, 9))

	last, err = d.LastIngestRun()
	require.NoError(t, err)
	require.NotNil(t, last.FinishedAt)
	assert.Equal(t, 7, last.Cards)
	assert.Equal(t, 9, last.Printings)
}

func TestFinishUnknownIngestRun(t *testing.T) {
	d := testutil.SetupTestDB(t)
	assert.ErrorIs(t, d.FinishIngestRun("nope", 1, 1), db.ErrNotFound)
}

func TestStatus(t *testing.T) {
	d := testutil.SetupSeededDB(t)

	s, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, 7, s.Cards)
	assert.Equal(t, 9, s.Printings)
	assert.Equal(t, 4, s.Formats)
	assert.Empty(t, s.LastUpdated)
	assert.Empty(t, s.ImportedAt)
	assert.Nil(t, s.LastRun)
}

func TestNewIDSortable(t *testing.T) {
	a := db.NewID()
	b := db.NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
