package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     Intent
	}{
		{"What does the conversion funnel look like?", IntentFunnel},
		{"Where do most users drop off in the purchase funnel?", IntentFunnel},
		{"How do high-LTV users browse differently from low-LTV users?", IntentCohortComparison},
		{"Compare churned and active users", IntentCohortComparison},
		{"Premium versus budget shoppers", IntentCohortComparison},
		{"What behaviors distinguish loyal customers?", IntentCohortComparison},
		{"Which products do users view before purchasing electronics?", IntentPreConversion},
		{"What drives conversion?", IntentPreConversion},
		{"What do shoppers do before buying?", IntentPreConversion},
		{"Why do users leave after viewing fashion products?", IntentExitAnalysis},
		{"What are common exit patterns?", IntentExitAnalysis},
		{"Where do visitors abandon their carts?", IntentExitAnalysis},
		{"What's the typical journey of churned users?", IntentTypicalJourney},
		{"Tell me about shopping sessions", IntentTypicalJourney},
		{"", IntentTypicalJourney},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.question))
		})
	}
}

func TestWantsChurned(t *testing.T) {
	assert.True(t, WantsChurned("What's the typical journey of churned users?"))
	assert.True(t, WantsChurned("What patterns lead to churn?"))
	assert.False(t, WantsChurned("What does the funnel look like?"))
	assert.False(t, WantsChurned(""))
}

func TestIntent_String(t *testing.T) {
	tests := []struct {
		intent   Intent
		expected string
	}{
		{IntentTypicalJourney, "typical_journey"},
		{IntentPreConversion, "pre_conversion"},
		{IntentCohortComparison, "cohort_comparison"},
		{IntentExitAnalysis, "exit_analysis"},
		{IntentFunnel, "funnel"},
		{Intent(99), "unknown"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, tc.intent.String())
	}
}

func TestPresets_IntentsResolve(t *testing.T) {
	// Every preset's stored intent must map back onto the enum.
	for _, p := range Presets() {
		found := false
		for i := IntentTypicalJourney; i <= IntentFunnel; i++ {
			if i.String() == p.Intent {
				found = true
			}
		}
		assert.True(t, found, "preset %s carries unknown intent %q", p.ID, p.Intent)
	}
}

func TestPresetByID(t *testing.T) {
	p, ok := PresetByID("pre_purchase_electronics")
	assert.True(t, ok)
	assert.Equal(t, "Electronics", p.Category)

	_, ok = PresetByID("nope")
	assert.False(t, ok)
}
