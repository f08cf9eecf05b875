package datagen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/ingestion"
)

func testConfig() Config {
	return Config{Users: 200, Products: 50, Sessions: 500, Seed: 42}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := New(testConfig()).Generate()
	b := New(testConfig()).Generate()

	assert.Equal(t, a.Users, b.Users)
	assert.Equal(t, a.Products, b.Products)
	assert.Equal(t, a.Events, b.Events)
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	cfg := testConfig()
	a := New(cfg).Generate()
	cfg.Seed = 43
	b := New(cfg).Generate()

	assert.NotEqual(t, a.Events, b.Events)
}

func TestGenerate_BuildsValidGraph(t *testing.T) {
	tables := New(testConfig()).Generate()

	g, err := graph.Build(tables)
	require.NoError(t, err)

	assert.Equal(t, int32(200), g.NumUsers())
	assert.Equal(t, int32(500), g.NumSessions())
	assert.Equal(t, int32(50), g.NumProducts())

	// Every session ends in exactly one terminal marker.
	for i := int32(0); i < g.NumSessions(); i++ {
		seq := g.TypeSequence(i)
		require.NotEmpty(t, seq)
		assert.Equal(t, graph.EventExit, seq[len(seq)-1])
		for _, et := range seq[:len(seq)-1] {
			assert.NotEqual(t, graph.EventExit, et)
		}
	}
}

func TestGenerate_SegmentShapes(t *testing.T) {
	tables := New(Config{Users: 2000, Products: 50, Sessions: 100, Seed: 7}).Generate()

	counts := map[string]int{}
	churned := 0
	for _, u := range tables.Users {
		counts[u.Segment]++
		assert.GreaterOrEqual(t, u.LTV, 0.0)
		if u.Churned {
			churned++
		}
	}

	// Rough distribution checks; exact values depend on the seed.
	assert.Greater(t, counts["medium"], counts["high_value"])
	assert.Greater(t, counts["low"], counts["high_value"])
	assert.Greater(t, churned, 0)
	assert.Less(t, churned, len(tables.Users))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	tables := New(testConfig()).Generate()

	require.NoError(t, WriteCSV(tables, dir))

	loaded, err := ingestion.LoadTables(dir)
	require.NoError(t, err)

	assert.Equal(t, len(tables.Users), len(loaded.Users))
	assert.Equal(t, len(tables.Products), len(loaded.Products))
	assert.Equal(t, len(tables.Events), len(loaded.Events))

	assert.Equal(t, tables.Users[0], loaded.Users[0])
	assert.Equal(t, tables.Events[0].Timestamp.UTC(), loaded.Events[0].Timestamp.UTC())

	_, err = graph.Build(loaded)
	require.NoError(t, err)
}
