package retrieval

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/storage/models"
)

func pid(id int64) *int64 {
	return &id
}

// buildRetrievalGraph constructs three sessions: one converting Electronics
// journey, one churned Fashion exit, one churned search exit.
func buildRetrievalGraph(t *testing.T) *graph.Graph {
	t.Helper()

	base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tables := &models.Tables{
		Users: []models.UserRecord{
			{ID: 1, Segment: "high_value", LTV: 600},
			{ID: 2, Segment: "low", LTV: 25, Churned: true},
		},
		Products: []models.ProductRecord{
			{ID: 10, Category: "Electronics", Price: 199.99},
			{ID: 20, Category: "Fashion", Price: 59.99},
		},
		Events: []models.EventRecord{
			{ID: 0, SessionID: 1, UserID: 1, Type: "search", Timestamp: at(0)},
			{ID: 1, SessionID: 1, UserID: 1, Type: "click", Timestamp: at(1), ProductID: pid(10)},
			{ID: 2, SessionID: 1, UserID: 1, Type: "add_to_cart", Timestamp: at(2), ProductID: pid(10)},
			{ID: 3, SessionID: 1, UserID: 1, Type: "purchase", Timestamp: at(3), ProductID: pid(10)},

			{ID: 4, SessionID: 2, UserID: 2, Type: "page_view", Timestamp: at(0), ProductID: pid(20)},
			{ID: 5, SessionID: 2, UserID: 2, Type: "exit", Timestamp: at(1)},

			{ID: 6, SessionID: 3, UserID: 2, Type: "search", Timestamp: at(10)},
			{ID: 7, SessionID: 3, UserID: 2, Type: "exit", Timestamp: at(11)},
		},
	}

	g, err := graph.Build(tables)
	require.NoError(t, err)
	return g
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return NewOrchestrator(buildRetrievalGraph(t), 2, 10)
}

func TestRoute_PresetWinsOverFreeText(t *testing.T) {
	o := newTestOrchestrator(t)

	intent, opts := o.Route("tell me anything", "conversion_funnel", "")
	assert.Equal(t, IntentFunnel, intent)
	assert.Equal(t, 2, opts.Window)

	intent, opts = o.Route("", "pre_purchase_electronics", "")
	assert.Equal(t, IntentPreConversion, intent)
	assert.Equal(t, "Electronics", opts.Category)
}

func TestRoute_FreeTextFallback(t *testing.T) {
	o := newTestOrchestrator(t)

	intent, opts := o.Route("What's the typical journey of churned users?", "", "")
	assert.Equal(t, IntentTypicalJourney, intent)
	assert.True(t, opts.Churned)

	intent, _ = o.Route("compare high and low value segments", "unknown_preset", "")
	assert.Equal(t, IntentCohortComparison, intent)
}

func TestRoute_ExplicitCategoryOverridesPreset(t *testing.T) {
	o := newTestOrchestrator(t)

	_, opts := o.Route("", "pre_purchase_electronics", "Fashion")
	assert.Equal(t, "Fashion", opts.Category)
}

func TestRetrieve_TypicalJourney(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentTypicalJourney, Options{Window: 2})
	require.NoError(t, err)

	assert.Equal(t, "typical_journey", g.Intent)
	assert.True(t, g.Sufficient)
	require.NotNil(t, g.PathStats)
	assert.Equal(t, 3, g.PathStats.Sessions)
	assert.Contains(t, g.Context, "purchase → exit")
	assert.Contains(t, g.Context, "search → exit")
}

func TestRetrieve_ChurnedOption(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentTypicalJourney, Options{Window: 2, Churned: true})
	require.NoError(t, err)

	assert.True(t, g.Sufficient)
	assert.Equal(t, 2, g.PathStats.Sessions)
	assert.NotContains(t, g.Context, "purchase → exit")
}

func TestRetrieve_EmptyCohortStatesInsufficientData(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentTypicalJourney, Options{Window: 2, Category: "Books"})
	require.NoError(t, err)

	assert.False(t, g.Sufficient)
	assert.Contains(t, g.Context, "Insufficient data")
	assert.Contains(t, g.Context, "0 sessions")
}

func TestRetrieve_ExitAnalysis(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentExitAnalysis, Options{Window: 2, Churned: true})
	require.NoError(t, err)

	assert.True(t, g.Sufficient)
	assert.Contains(t, g.Context, "Last event before exit")
	assert.Contains(t, g.Context, "Average events before exit")
}

func TestRetrieve_PreConversion(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentPreConversion, Options{Window: 2})
	require.NoError(t, err)

	assert.True(t, g.Sufficient)
	require.NotNil(t, g.PreConversion)
	assert.Equal(t, 1, g.PreConversion.ConvertingSessions)
	assert.Contains(t, g.Context, "Electronics")
}

func TestRetrieve_PreConversionNoConversions(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentPreConversion, Options{Window: 2, Churned: true})
	require.NoError(t, err)

	assert.False(t, g.Sufficient)
	assert.Contains(t, g.Context, "no converting sessions")
}

func TestRetrieve_CohortComparison(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentCohortComparison, Options{Window: 2, Churned: true})
	require.NoError(t, err)

	assert.True(t, g.Sufficient)
	require.NotNil(t, g.Comparison)
	assert.Equal(t, "churned users", g.Comparison.A.Name)
	assert.Equal(t, "active users", g.Comparison.B.Name)
	assert.Contains(t, g.Context, "Key differences")
}

func TestRetrieve_ComparisonWithEmptySide(t *testing.T) {
	o := newTestOrchestrator(t)

	// Default comparison is high_value vs low segment; both exist here, so
	// force an empty side via the segment graph instead.
	g, err := o.Retrieve(IntentCohortComparison, Options{Window: 2})
	require.NoError(t, err)
	assert.True(t, g.Sufficient)

	// An empty cohort renders as undefined differences, never zeros.
	empty := NewOrchestrator(buildEmptySegmentGraph(t), 2, 10)
	g, err = empty.Retrieve(IntentCohortComparison, Options{Window: 2})
	require.NoError(t, err)
	assert.False(t, g.Sufficient)
	assert.Contains(t, g.Context, "undefined (one cohort is empty)")
}

func TestRetrieve_Funnel(t *testing.T) {
	o := newTestOrchestrator(t)

	g, err := o.Retrieve(IntentFunnel, Options{Window: 2})
	require.NoError(t, err)

	assert.True(t, g.Sufficient)
	require.NotNil(t, g.Funnel)
	require.Len(t, g.Funnel.Stages, 4)
	assert.Contains(t, g.Context, "drop-off")
}

func TestRetrieve_MaxPatternsCap(t *testing.T) {
	o := NewOrchestrator(buildRetrievalGraph(t), 2, 1)

	g, err := o.Retrieve(IntentTypicalJourney, Options{Window: 2})
	require.NoError(t, err)

	// Three distinct endings exist but only one is rendered.
	assert.Equal(t, 1, strings.Count(g.Context, "occurrences"))
	assert.Len(t, g.PathStats.Patterns, 3, "structured stats keep every pattern")
}

// buildEmptySegmentGraph has no high_value or low segment users, so the
// default segment comparison matches nothing on either side.
func buildEmptySegmentGraph(t *testing.T) *graph.Graph {
	t.Helper()

	base := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	tables := &models.Tables{
		Users: []models.UserRecord{{ID: 1, Segment: "medium", LTV: 100}},
		Events: []models.EventRecord{
			{ID: 0, SessionID: 1, UserID: 1, Type: "page_view", Timestamp: base},
		},
	}

	g, err := graph.Build(tables)
	require.NoError(t, err)
	return g
}
