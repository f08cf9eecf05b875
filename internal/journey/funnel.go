package journey

import (
	"github.com/journey-rag/backend/internal/graph"
)

// funnelStages is the canonical purchase funnel order.
var funnelStages = []graph.EventType{
	graph.EventPageView,
	graph.EventClick,
	graph.EventAddToCart,
	graph.EventPurchase,
}

type FunnelStage struct {
	Type     graph.EventType `json:"type"`
	Sessions int             `json:"sessions"`
	Fraction float64         `json:"fraction"`
	// DropOff is the share of the previous stage's sessions lost at this
	// stage; zero for the first stage or when the previous stage is empty.
	DropOff float64 `json:"drop_off"`
}

type Funnel struct {
	Cohort   string        `json:"cohort"`
	Sessions int           `json:"sessions"`
	Stages   []FunnelStage `json:"stages"`
}

// ComputeFunnel counts, per funnel stage, the cohort sessions containing at
// least one event of that stage's type.
func ComputeFunnel(g *graph.Graph, c Cohort) (*Funnel, error) {
	sessions := c.sessions(g)
	f := &Funnel{Cohort: c.Name, Sessions: len(sessions)}

	counts := make([]int, len(funnelStages))
	for _, s := range sessions {
		if err := checkSession(g, s); err != nil {
			return nil, err
		}
		for i, stage := range funnelStages {
			if sessionHasType(g, s, stage) {
				counts[i]++
			}
		}
	}

	prev := 0
	for i, stage := range funnelStages {
		st := FunnelStage{Type: stage, Sessions: counts[i]}
		if len(sessions) > 0 {
			st.Fraction = float64(counts[i]) / float64(len(sessions))
		}
		if i > 0 && prev > 0 {
			st.DropOff = float64(prev-counts[i]) / float64(prev)
		}
		prev = counts[i]
		f.Stages = append(f.Stages, st)
	}

	return f, nil
}
