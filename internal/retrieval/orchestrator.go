package retrieval

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/journey"
	"github.com/journey-rag/backend/pkg/logger"
)

// Options carry the routing hints extracted from a question or preset.
type Options struct {
	Category string
	Window   int
	Churned  bool
}

// Grounding is the deterministic statistical context assembled for one
// query. Context is the LLM-ready rendering; the structured fields hold the
// raw numbers it was rendered from, so callers always get grounded statistics
// even when synthesis fails. Sufficient is false when the selected cohort
// matched no sessions.
type Grounding struct {
	Intent        string                      `json:"intent"`
	Context       string                      `json:"context"`
	Sufficient    bool                        `json:"sufficient"`
	PathStats     *journey.PathStats          `json:"path_stats,omitempty"`
	Comparison    *journey.Comparison         `json:"comparison,omitempty"`
	Funnel        *journey.Funnel             `json:"funnel,omitempty"`
	PreConversion *journey.PreConversionStats `json:"pre_conversion,omitempty"`
}

// Orchestrator maps classified intents onto path-extraction and cohort
// aggregation calls over the shared read-only graph.
type Orchestrator struct {
	graph       *graph.Graph
	window      int
	maxPatterns int
}

func NewOrchestrator(g *graph.Graph, window, maxPatterns int) *Orchestrator {
	if window < 1 {
		window = journey.DefaultWindow
	}
	if maxPatterns < 1 {
		maxPatterns = 10
	}
	return &Orchestrator{graph: g, window: window, maxPatterns: maxPatterns}
}

// Route resolves a request to an intent plus options. A recognized preset id
// wins over free-text classification.
func (o *Orchestrator) Route(question, presetID, category string) (Intent, Options) {
	opts := Options{Category: category, Window: o.window}

	if p, ok := PresetByID(presetID); ok {
		if opts.Category == "" {
			opts.Category = p.Category
		}
		opts.Churned = WantsChurned(p.Query)
		for i := IntentTypicalJourney; i <= IntentFunnel; i++ {
			if i.String() == p.Intent {
				return i, opts
			}
		}
	}

	opts.Churned = WantsChurned(question)
	return Classify(question), opts
}

// Retrieve runs the aggregations for one intent and renders the grounding
// context. Every number in the context comes from a computed statistic; an
// empty cohort is stated explicitly rather than silently swapped for a
// different one.
func (o *Orchestrator) Retrieve(intent Intent, opts Options) (*Grounding, error) {
	if opts.Window < 1 {
		opts.Window = o.window
	}

	var (
		g   *Grounding
		err error
	)

	switch intent {
	case IntentTypicalJourney:
		g, err = o.typicalJourney(opts)
	case IntentPreConversion:
		g, err = o.preConversion(opts)
	case IntentCohortComparison:
		g, err = o.cohortComparison(opts)
	case IntentExitAnalysis:
		g, err = o.exitAnalysis(opts)
	case IntentFunnel:
		g, err = o.funnel(opts)
	default:
		return nil, fmt.Errorf("unsupported intent %q", intent)
	}
	if err != nil {
		return nil, fmt.Errorf("%s retrieval failed: %w", intent, err)
	}

	g.Intent = intent.String()
	logger.Debug("Grounding context assembled",
		zap.String("intent", g.Intent),
		zap.Bool("sufficient", g.Sufficient),
		zap.Int("context_bytes", len(g.Context)),
	)

	return g, nil
}

func (o *Orchestrator) baseCohort(opts Options) journey.Cohort {
	c := journey.Everyone()
	if opts.Churned {
		c = journey.Churned()
	}
	if opts.Category != "" {
		c = c.And(journey.ViewedCategory(opts.Category))
	}
	return c
}

func (o *Orchestrator) typicalJourney(opts Options) (*Grounding, error) {
	cohort := o.baseCohort(opts)
	stats, err := journey.ExtractPatterns(o.graph, cohort, opts.Window)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Journey Pattern Analysis\n\n")
	o.renderPathStats(&b, stats)

	return &Grounding{
		Context:    b.String(),
		Sufficient: stats.Sessions > 0,
		PathStats:  stats,
	}, nil
}

func (o *Orchestrator) exitAnalysis(opts Options) (*Grounding, error) {
	cohort := o.baseCohort(opts)
	stats, err := journey.ExtractPatterns(o.graph, cohort, opts.Window)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Exit / Drop-off Analysis\n\n")
	if stats.Sessions == 0 {
		fmt.Fprintf(&b, "Insufficient data: cohort %q matched 0 sessions.\n", stats.Cohort)
	} else {
		fmt.Fprintf(&b, "Cohort: %s (%d sessions)\n", stats.Cohort, stats.Sessions)
		fmt.Fprintf(&b, "Average events before exit: %.2f\n", stats.MeanEventsBeforeExit)
		b.WriteString("\n### Last event before exit:\n")
		for _, tc := range stats.LastBeforeExit {
			fmt.Fprintf(&b, "- %s: %d sessions\n", tc.Type, tc.Count)
		}
		b.WriteString("\n### Exit patterns:\n")
		o.renderPatterns(&b, stats)
	}

	return &Grounding{
		Context:    b.String(),
		Sufficient: stats.Sessions > 0,
		PathStats:  stats,
	}, nil
}

func (o *Orchestrator) preConversion(opts Options) (*Grounding, error) {
	cohort := o.baseCohort(opts)
	pre, err := journey.PreConversion(o.graph, cohort)
	if err != nil {
		return nil, err
	}
	patterns, err := journey.ExtractPatterns(o.graph, cohort.And(journey.Converting()), opts.Window)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Pre-Conversion Behavior Analysis\n\n")
	if opts.Category != "" {
		fmt.Fprintf(&b, "Filtered by category: %s\n", opts.Category)
	}
	if pre.ConvertingSessions == 0 {
		fmt.Fprintf(&b, "Insufficient data: no converting sessions in cohort %q.\n", pre.Cohort)
	} else {
		fmt.Fprintf(&b, "Converting sessions analyzed: %d\n", pre.ConvertingSessions)
		fmt.Fprintf(&b, "Average events before purchase: %.2f\n", pre.MeanEventsToPurchase)
		b.WriteString("\n### Categories viewed before purchase:\n")
		for _, cc := range pre.CategoriesViewed {
			fmt.Fprintf(&b, "- %s: %d views\n", cc.Category, cc.Count)
		}
		b.WriteString("\n### Conversion journey endings:\n")
		o.renderPatterns(&b, patterns)
	}

	return &Grounding{
		Context:       b.String(),
		Sufficient:    pre.ConvertingSessions > 0,
		PreConversion: pre,
		PathStats:     patterns,
	}, nil
}

func (o *Orchestrator) cohortComparison(opts Options) (*Grounding, error) {
	a, cb := journey.Segment("high_value"), journey.Segment("low")
	if opts.Churned {
		a, cb = journey.Churned(), journey.Active()
	}

	cmp, err := journey.Compare(o.graph, a, cb)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Cohort Comparison\n\n")
	o.renderCohort(&b, cmp.A)
	b.WriteString("\n")
	o.renderCohort(&b, cmp.B)

	b.WriteString("\n### Key differences (A minus B):\n")
	renderDiff(&b, "Events per session", cmp.Diff.MeanEventsPerSession, "%.2f")
	renderDiff(&b, "Conversion rate", pctPtr(cmp.Diff.ConversionRate), "%.1f%%")
	renderDiff(&b, "Purchases per session", cmp.Diff.MeanPurchasesPerSession, "%.2f")
	renderDiff(&b, "Mean LTV", cmp.Diff.MeanLTV, "$%.2f")

	return &Grounding{
		Context:    b.String(),
		Sufficient: cmp.A.Scalars.Sessions > 0 && cmp.B.Scalars.Sessions > 0,
		Comparison: cmp,
	}, nil
}

func (o *Orchestrator) funnel(opts Options) (*Grounding, error) {
	cohort := o.baseCohort(opts)
	f, err := journey.ComputeFunnel(o.graph, cohort)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Conversion Funnel\n\n")
	if f.Sessions == 0 {
		fmt.Fprintf(&b, "Insufficient data: cohort %q matched 0 sessions.\n", f.Cohort)
	} else {
		fmt.Fprintf(&b, "Cohort: %s (%d sessions)\n\n", f.Cohort, f.Sessions)
		for _, st := range f.Stages {
			fmt.Fprintf(&b, "- %s: %d sessions (%.1f%%), drop-off %.1f%%\n",
				st.Type, st.Sessions, st.Fraction*100, st.DropOff*100)
		}
	}

	return &Grounding{
		Context:    b.String(),
		Sufficient: f.Sessions > 0,
		Funnel:     f,
	}, nil
}

func (o *Orchestrator) renderPathStats(b *strings.Builder, stats *journey.PathStats) {
	if stats.Sessions == 0 {
		fmt.Fprintf(b, "Insufficient data: cohort %q matched 0 sessions.\n", stats.Cohort)
		return
	}
	fmt.Fprintf(b, "Cohort: %s (%d sessions)\n", stats.Cohort, stats.Sessions)
	fmt.Fprintf(b, "Average events per journey: %.2f\n", stats.MeanEventsBeforeExit)
	fmt.Fprintf(b, "\n### Most common journey endings (last %d events):\n", stats.Window)
	o.renderPatterns(b, stats)
}

func (o *Orchestrator) renderPatterns(b *strings.Builder, stats *journey.PathStats) {
	for i, p := range stats.Patterns {
		if i >= o.maxPatterns {
			break
		}
		fmt.Fprintf(b, "%d. **%s** - %d occurrences (%.1f%%)\n",
			i+1, journey.RenderSequence(p.Sequence), p.Count, p.Percent)
	}
}

func (o *Orchestrator) renderCohort(b *strings.Builder, cs journey.CohortStats) {
	fmt.Fprintf(b, "### %s:\n", cs.Name)
	s := cs.Scalars
	if s.Sessions == 0 {
		b.WriteString("- Insufficient data: 0 sessions matched this cohort.\n")
		return
	}
	fmt.Fprintf(b, "- Users: %d, Sessions: %d, Events: %d\n", s.Users, s.Sessions, s.Events)
	fmt.Fprintf(b, "- Events per session: %.2f\n", *s.MeanEventsPerSession)
	fmt.Fprintf(b, "- Conversion rate: %.1f%%\n", *s.ConversionRate*100)
	fmt.Fprintf(b, "- Purchases per session: %.2f\n", *s.MeanPurchasesPerSession)
	if s.MeanLTV != nil {
		fmt.Fprintf(b, "- Mean LTV: $%.2f\n", *s.MeanLTV)
	}
}

func renderDiff(b *strings.Builder, label string, v *float64, format string) {
	if v == nil {
		fmt.Fprintf(b, "- %s: undefined (one cohort is empty)\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: "+format+"\n", label, *v)
}

func pctPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := *v * 100
	return &p
}
