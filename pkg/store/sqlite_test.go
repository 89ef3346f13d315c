package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oiutils/threearc/pkg/types"
)

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	// Arrange
	dbPath := filepath.Join(t.TempDir(), "manifest.db")

	store, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.AddContainer(sampleRun("x.3")))
	for _, r := range sampleRecords("x.3") {
		require.NoError(t, store.AddRecord(r))
	}
	require.NoError(t, store.Close())

	// Act
	store, err = NewSQLite(dbPath)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.GetRecords("x.3")

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[1].PNG)
	assert.Equal(t, uint8(6), records[1].PNG.ColorType)
	assert.Nil(t, records[0].PNG)
	assert.Nil(t, records[0].JFIF)
}

func TestSQLite_JFIFHeader(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	defer store.Close()

	rec := &types.Record{
		Container:     "p.6",
		ContainerType: 6,
		Index:         3,
		Total:         4,
		Kind:          types.KindJPEG,
		HasDimensions: true,
		Width:         640,
		Height:        480,
		JFIF:          &types.JFIFHeader{Marker: 0xC2, BitDepth: 8, Width: 640, Height: 480},
		Offset:        4096,
		Length:        0xFFFFFFFF,
		Output:        "p_3.jpg",
	}
	require.NoError(t, store.AddRecord(rec))

	records, err := store.GetRecords("p.6")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}
