package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	require.NoError(t, g.Save(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, g.Stats(), loaded.Stats())
	require.Equal(t, g.NumSessions(), loaded.NumSessions())
	for i := int32(0); i < g.NumSessions(); i++ {
		assert.Equal(t, g.TypeSequence(i), loaded.TypeSequence(i))
	}

	// Lookup maps are rebuilt on load.
	u, ok := loaded.UserByID(1)
	require.True(t, ok)
	assert.Equal(t, "high_value", u.Segment)

	p, ok := loaded.ProductByID(20)
	require.True(t, ok)
	assert.Equal(t, "Fashion", p.Category)

	s, ok := loaded.SessionByID(100)
	require.True(t, ok)
	assert.Len(t, s.Events, 5)
}

func TestSnapshot_CreatesDirectory(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "graph.json")

	require.NoError(t, g.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoadSnapshot_VersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSnapshotVersion)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadSnapshot_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
}
