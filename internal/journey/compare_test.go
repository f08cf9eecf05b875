package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_ChurnedVsActive(t *testing.T) {
	g := buildJourneyGraph(t)

	cmp, err := Compare(g, Churned(), Active())
	require.NoError(t, err)

	churned := cmp.A.Scalars
	assert.Equal(t, 2, churned.Users)
	assert.Equal(t, 3, churned.Sessions)
	// Explicit exits count as observed events; synthetic ones do not.
	assert.Equal(t, 7, churned.Events)
	require.NotNil(t, churned.MeanEventsPerSession)
	assert.InDelta(t, 7.0/3, *churned.MeanEventsPerSession, 1e-9)
	require.NotNil(t, churned.ConversionRate)
	assert.Zero(t, *churned.ConversionRate)
	require.NotNil(t, churned.MeanLTV)
	assert.InDelta(t, 30.0, *churned.MeanLTV, 1e-9)

	active := cmp.B.Scalars
	assert.Equal(t, 2, active.Users)
	assert.Equal(t, 2, active.Sessions)
	assert.Equal(t, 7, active.Events)
	require.NotNil(t, active.ConversionRate)
	assert.Equal(t, 1.0, *active.ConversionRate)
	require.NotNil(t, active.MeanPurchasesPerSession)
	assert.Equal(t, 1.0, *active.MeanPurchasesPerSession)
	require.NotNil(t, active.MeanLTV)
	assert.InDelta(t, 400.0, *active.MeanLTV, 1e-9)

	require.NotNil(t, cmp.Diff.ConversionRate)
	assert.InDelta(t, -1.0, *cmp.Diff.ConversionRate, 1e-9)
	require.NotNil(t, cmp.Diff.MeanLTV)
	assert.InDelta(t, -370.0, *cmp.Diff.MeanLTV, 1e-9)
}

// Swapping the cohorts must flip every difference's sign exactly.
func TestCompare_SignSymmetric(t *testing.T) {
	g := buildJourneyGraph(t)

	ab, err := Compare(g, Churned(), Active())
	require.NoError(t, err)
	ba, err := Compare(g, Active(), Churned())
	require.NoError(t, err)

	checks := []struct {
		name string
		ab   *float64
		ba   *float64
	}{
		{"mean events per session", ab.Diff.MeanEventsPerSession, ba.Diff.MeanEventsPerSession},
		{"conversion rate", ab.Diff.ConversionRate, ba.Diff.ConversionRate},
		{"mean purchases per session", ab.Diff.MeanPurchasesPerSession, ba.Diff.MeanPurchasesPerSession},
		{"mean ltv", ab.Diff.MeanLTV, ba.Diff.MeanLTV},
	}
	for _, c := range checks {
		require.NotNil(t, c.ab, c.name)
		require.NotNil(t, c.ba, c.name)
		assert.Equal(t, *c.ab, -*c.ba, c.name)
	}
}

func TestCompare_EmptyCohortYieldsNullScalars(t *testing.T) {
	g := buildJourneyGraph(t)

	cmp, err := Compare(g, Segment("nonexistent"), Everyone())
	require.NoError(t, err)

	empty := cmp.A.Scalars
	assert.Zero(t, empty.Users)
	assert.Zero(t, empty.Sessions)
	assert.Zero(t, empty.Events)
	assert.Nil(t, empty.MeanEventsPerSession)
	assert.Nil(t, empty.ConversionRate)
	assert.Nil(t, empty.MeanPurchasesPerSession)
	assert.Nil(t, empty.MeanLTV)

	// Differences against an empty side are undefined, not zero.
	assert.Nil(t, cmp.Diff.MeanEventsPerSession)
	assert.Nil(t, cmp.Diff.ConversionRate)
	assert.Nil(t, cmp.Diff.MeanLTV)
}

func TestCompare_SegmentCohorts(t *testing.T) {
	g := buildJourneyGraph(t)

	cmp, err := Compare(g, Segment("high_value"), Segment("low"))
	require.NoError(t, err)

	assert.Equal(t, 2, cmp.A.Scalars.Sessions)
	assert.Equal(t, 3, cmp.B.Scalars.Sessions)
	require.NotNil(t, cmp.Diff.ConversionRate)
	assert.Equal(t, 1.0, *cmp.Diff.ConversionRate)
}

func TestCohort_And(t *testing.T) {
	g := buildJourneyGraph(t)

	cmp, err := Compare(g, Churned().And(ViewedCategory("Fashion")), Everyone())
	require.NoError(t, err)

	// Only s4 touched Fashion.
	assert.Equal(t, 1, cmp.A.Scalars.Sessions)
	assert.Equal(t, "churned users, Fashion sessions", cmp.A.Name)
}

func TestCohort_LTVBounds(t *testing.T) {
	g := buildJourneyGraph(t)

	cmp, err := Compare(g, LTVAtLeast(300), LTVBelow(50))
	require.NoError(t, err)

	assert.Equal(t, 2, cmp.A.Scalars.Users)
	assert.Equal(t, 2, cmp.B.Scalars.Users)
	assert.Equal(t, 3, cmp.B.Scalars.Sessions)
}
