package retrieval

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// Intent is the closed set of analytic query shapes the engine supports.
// Free-text routing only ever selects one of these; it never invents a new
// aggregation.
type Intent int

const (
	IntentTypicalJourney Intent = iota
	IntentPreConversion
	IntentCohortComparison
	IntentExitAnalysis
	IntentFunnel
)

func (i Intent) String() string {
	switch i {
	case IntentTypicalJourney:
		return "typical_journey"
	case IntentPreConversion:
		return "pre_conversion"
	case IntentCohortComparison:
		return "cohort_comparison"
	case IntentExitAnalysis:
		return "exit_analysis"
	case IntentFunnel:
		return "funnel"
	default:
		return "unknown"
	}
}

// Classify maps a free-text question onto an intent by keyword match over
// the tokenized question. Unrecognized questions default to the typical
// journey analysis.
func Classify(question string) Intent {
	tokens := tokenize(question)

	switch {
	case tokens["funnel"]:
		return IntentFunnel
	case tokens["compare"] || tokens["versus"] || tokens["vs"] || tokens["differently"] ||
		(tokens["high"] && tokens["low"]) || tokens["distinguish"]:
		return IntentCohortComparison
	case (tokens["before"] && (tokens["purchase"] || tokens["purchasing"] || tokens["buying"])) ||
		tokens["conversion"] || tokens["convert"]:
		return IntentPreConversion
	case tokens["exit"] || tokens["leave"] || tokens["abandon"] ||
		tokens["drop"] || tokens["drop-off"] || tokens["dropoff"]:
		return IntentExitAnalysis
	default:
		return IntentTypicalJourney
	}
}

// WantsChurned reports whether the question narrows the cohort to churned
// users.
func WantsChurned(question string) bool {
	tokens := tokenize(question)
	return tokens["churn"] || tokens["churned"] || tokens["churning"]
}

func tokenize(question string) map[string]bool {
	tokens := make(map[string]bool)

	doc, err := prose.NewDocument(question,
		prose.WithExtraction(false),
		prose.WithTagging(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		for _, w := range strings.Fields(question) {
			tokens[strings.ToLower(strings.Trim(w, ".,!?"))] = true
		}
		return tokens
	}

	for _, tok := range doc.Tokens() {
		tokens[strings.ToLower(tok.Text)] = true
	}
	return tokens
}
