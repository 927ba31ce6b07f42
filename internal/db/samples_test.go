package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/isoalign/internal/feature"
)

func TestImportPeakList_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	in := testList("blank", 100.0, 250.5)

	require.NoError(t, d.ImportPeakList(in, "/data/blank.csv"))

	out, err := d.LoadPeakList("blank")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestImportPeakList_Positions(t *testing.T) {
	d := newTestDB(t)
	for _, s := range []string{"c", "a", "b"} {
		require.NoError(t, d.ImportPeakList(testList(s, 100), s+".csv"))
	}

	recs, err := d.ListSamples()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, want := range []feature.SampleID{"c", "a", "b"} {
		assert.Equal(t, want, recs[i].ID)
		assert.Equal(t, i, recs[i].Position)
		assert.Equal(t, 2, recs[i].PeakCount)
		assert.False(t, recs[i].ImportedAt.IsZero())
	}
	assert.Equal(t, "a.csv", recs[1].SourcePath)
}

func TestImportPeakList_Duplicate(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.ImportPeakList(testList("a", 100), ""))
	err := d.ImportPeakList(testList("a", 200), "")
	assert.ErrorContains(t, err, "already imported")

	out, err := d.LoadPeakList("a")
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.Peaks[0].MZ)
}

func TestImportPeakList_Invalid(t *testing.T) {
	d := newTestDB(t)
	assert.Error(t, d.ImportPeakList(nil, ""))
	assert.Error(t, d.ImportPeakList(&feature.PeakList{}, ""))
}

func TestImportPeakList_Empty(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.ImportPeakList(&feature.PeakList{Sample: "empty"}, ""))
	out, err := d.LoadPeakList("empty")
	require.NoError(t, err)
	assert.Empty(t, out.Peaks)
}

func TestLoadPeakLists(t *testing.T) {
	d := newTestDB(t)
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, d.ImportPeakList(testList(s, 100), ""))
	}

	all, err := d.LoadPeakLists(nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, feature.SampleID("a"), all[0].Sample)
	assert.Equal(t, feature.SampleID("c"), all[2].Sample)

	picked, err := d.LoadPeakLists([]feature.SampleID{"c", "a"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, feature.SampleID("c"), picked[0].Sample)
	assert.Equal(t, feature.SampleID("a"), picked[1].Sample)

	_, err = d.LoadPeakLists([]feature.SampleID{"a", "x", "y"})
	assert.ErrorContains(t, err, "unknown samples: x, y")
}

func TestLoadPeakList_Missing(t *testing.T) {
	d := newTestDB(t)
	_, err := d.LoadPeakList("nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteSample(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.ImportPeakList(testList("a", 100), ""))
	require.NoError(t, d.DeleteSample("a"))

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM peaks`).Scan(&n))
	assert.Zero(t, n)
	assert.ErrorIs(t, d.DeleteSample("a"), sql.ErrNoRows)
}
