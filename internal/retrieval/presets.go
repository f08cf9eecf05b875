package retrieval

type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Query       string `json:"query"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
	Intent      string `json:"intent"`
}

var presets = []Preset{
	{
		ID:          "churned_journeys",
		Name:        "Churned User Journeys",
		Query:       "What's the typical journey of churned users? What patterns lead to churn?",
		Description: "Analyzes journey patterns of users who churned",
		Intent:      IntentTypicalJourney.String(),
	},
	{
		ID:          "pre_purchase_electronics",
		Name:        "Pre-Purchase Behavior (Electronics)",
		Query:       "Which products do users view before purchasing electronics? What's the typical path to conversion?",
		Category:    "Electronics",
		Description: "Examines browsing behavior before electronics purchases",
		Intent:      IntentPreConversion.String(),
	},
	{
		ID:          "high_vs_low_ltv",
		Name:        "High-LTV vs Low-LTV Comparison",
		Query:       "How do high-LTV users browse differently from low-LTV users? What behaviors distinguish them?",
		Description: "Compares journey patterns between value segments",
		Intent:      IntentCohortComparison.String(),
	},
	{
		ID:          "fashion_exit",
		Name:        "Fashion Category Exit Analysis",
		Query:       "Why do users drop off after viewing fashion products? What are common exit patterns?",
		Category:    "Fashion",
		Description: "Analyzes drop-off points in fashion category journeys",
		Intent:      IntentExitAnalysis.String(),
	},
	{
		ID:          "conversion_funnel",
		Name:        "Conversion Funnel Analysis",
		Query:       "What does the conversion funnel look like? Where do most users drop off in the purchase journey?",
		Description: "Examines the overall conversion funnel",
		Intent:      IntentFunnel.String(),
	},
}

func Presets() []Preset {
	return presets
}

func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
