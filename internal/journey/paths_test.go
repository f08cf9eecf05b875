package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journey-rag/backend/internal/graph"
)

func TestExtractPatterns_ChurnedCohort(t *testing.T) {
	g := buildJourneyGraph(t)

	stats, err := ExtractPatterns(g, Churned(), 2)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Sessions)
	require.Len(t, stats.Patterns, 2)

	assert.Equal(t, "search → exit", RenderSequence(stats.Patterns[0].Sequence))
	assert.Equal(t, 2, stats.Patterns[0].Count)
	assert.InDelta(t, 100.0*2/3, stats.Patterns[0].Percent, 1e-9)

	assert.Equal(t, "click → exit", RenderSequence(stats.Patterns[1].Sequence))
	assert.Equal(t, 1, stats.Patterns[1].Count)

	// page_view(s3) + search(s3) + click(s4) + search(s5) = 4 observed events.
	assert.InDelta(t, 4.0/3, stats.MeanEventsBeforeExit, 1e-9)

	require.Len(t, stats.LastBeforeExit, 2)
	assert.Equal(t, graph.EventSearch, stats.LastBeforeExit[0].Type)
	assert.Equal(t, 2, stats.LastBeforeExit[0].Count)
	assert.Equal(t, graph.EventClick, stats.LastBeforeExit[1].Type)
}

// Percentages use the cohort session count as the denominator: 9 of 50
// churned sessions ending in add_to_cart must read as exactly 18%.
func TestExtractPatterns_PercentDenominatorIsSessions(t *testing.T) {
	g, err := graph.Build(churnedFixtureTables(t))
	require.NoError(t, err)

	stats, err := ExtractPatterns(g, Churned(), 2)
	require.NoError(t, err)
	require.Equal(t, 50, stats.Sessions)

	var cartExit *Pattern
	for i := range stats.Patterns {
		if RenderSequence(stats.Patterns[i].Sequence) == "add_to_cart → exit" {
			cartExit = &stats.Patterns[i]
		}
	}
	require.NotNil(t, cartExit)
	assert.Equal(t, 9, cartExit.Count)
	assert.Equal(t, 18.0, cartExit.Percent)
}

func TestExtractPatterns_CountTieBrokenLexicographically(t *testing.T) {
	g := buildJourneyGraph(t)

	stats, err := ExtractPatterns(g, Everyone(), 2)
	require.NoError(t, err)
	require.Equal(t, 5, stats.Sessions)
	require.Len(t, stats.Patterns, 3)

	// purchase → exit and search → exit both occur twice; the rendered
	// sequence breaks the tie.
	assert.Equal(t, "purchase → exit", RenderSequence(stats.Patterns[0].Sequence))
	assert.Equal(t, 2, stats.Patterns[0].Count)
	assert.Equal(t, "search → exit", RenderSequence(stats.Patterns[1].Sequence))
	assert.Equal(t, 2, stats.Patterns[1].Count)
	assert.Equal(t, "click → exit", RenderSequence(stats.Patterns[2].Sequence))
}

// Sessions shorter than the window contribute their whole sequence instead of
// being dropped.
func TestExtractPatterns_ShortSessionsIncluded(t *testing.T) {
	g := buildJourneyGraph(t)

	stats, err := ExtractPatterns(g, Churned(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sessions)

	total := 0
	for _, p := range stats.Patterns {
		total += p.Count
		assert.LessOrEqual(t, len(p.Sequence), 5)
	}
	assert.Equal(t, 3, total, "every cohort session contributes exactly one pattern")
}

func TestExtractPatterns_EmptyCohort(t *testing.T) {
	g := buildJourneyGraph(t)

	stats, err := ExtractPatterns(g, Segment("nonexistent"), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sessions)
	assert.Empty(t, stats.Patterns)
	assert.Empty(t, stats.LastBeforeExit)
	assert.Zero(t, stats.MeanEventsBeforeExit)
}

func TestExtractPatterns_Deterministic(t *testing.T) {
	g := buildJourneyGraph(t)

	first, err := ExtractPatterns(g, Everyone(), 2)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ExtractPatterns(g, Everyone(), 2)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRenderSequence(t *testing.T) {
	seq := []graph.EventType{graph.EventSearch, graph.EventClick, graph.EventExit}
	assert.Equal(t, "search → click → exit", RenderSequence(seq))
	assert.Equal(t, "", RenderSequence(nil))
}
