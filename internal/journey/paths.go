package journey

import (
	"sort"
	"strings"

	"github.com/journey-rag/backend/internal/graph"
)

// DefaultWindow is the pattern length used when a caller does not override
// it: bigrams ending at the terminal marker, e.g. "search → exit".
const DefaultWindow = 2

type Pattern struct {
	Sequence []graph.EventType `json:"sequence"`
	Count    int               `json:"count"`
	Percent  float64           `json:"percent"`
}

type TypeCount struct {
	Type  graph.EventType `json:"type"`
	Count int             `json:"count"`
}

// PathStats holds the frequency statistics over a cohort's event-type
// sequences plus the scalar summaries other intents consume.
type PathStats struct {
	Cohort               string      `json:"cohort"`
	Sessions             int         `json:"sessions"`
	Window               int         `json:"window"`
	Patterns             []Pattern   `json:"patterns"`
	LastBeforeExit       []TypeCount `json:"last_before_exit"`
	MeanEventsBeforeExit float64     `json:"mean_events_before_exit"`
}

// RenderSequence formats an event-type sequence the way it appears in
// grounding context and pattern keys.
func RenderSequence(seq []graph.EventType) string {
	parts := make([]string, len(seq))
	for i, t := range seq {
		parts[i] = string(t)
	}
	return strings.Join(parts, " → ")
}

// ExtractPatterns counts the trailing `window` event types of every session
// in the cohort, anchored at the terminal marker. Sessions shorter than the
// window contribute their full sequence. Percentages are computed against the
// cohort session count, not the event count: that denominator is what makes
// "18% of churned journeys" a statement about journeys.
//
// An empty cohort yields an empty result, not an error. Results are ordered
// by descending count, ties broken by the rendered sequence.
func ExtractPatterns(g *graph.Graph, c Cohort, window int) (*PathStats, error) {
	if window < 1 {
		window = DefaultWindow
	}

	sessions := c.sessions(g)
	stats := &PathStats{
		Cohort:   c.Name,
		Sessions: len(sessions),
		Window:   window,
	}
	if len(sessions) == 0 {
		return stats, nil
	}

	counts := make(map[string]Pattern)
	lastCounts := make(map[graph.EventType]int)
	totalBeforeExit := 0

	for _, s := range sessions {
		if err := checkSession(g, s); err != nil {
			return nil, err
		}
		seq := g.TypeSequence(s)

		tail := seq
		if len(tail) > window {
			tail = tail[len(tail)-window:]
		}
		key := RenderSequence(tail)
		p, ok := counts[key]
		if !ok {
			p = Pattern{Sequence: append([]graph.EventType(nil), tail...)}
		}
		p.Count++
		counts[key] = p

		// seq always ends in the terminal marker; everything before it is
		// the observed journey.
		totalBeforeExit += len(seq) - 1
		if len(seq) > 1 {
			lastCounts[seq[len(seq)-2]]++
		}
	}

	total := float64(len(sessions))
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		ca, cb := counts[keys[a]].Count, counts[keys[b]].Count
		if ca != cb {
			return ca > cb
		}
		return keys[a] < keys[b]
	})
	for _, k := range keys {
		p := counts[k]
		p.Percent = float64(p.Count) * 100 / total
		stats.Patterns = append(stats.Patterns, p)
	}

	for t, n := range lastCounts {
		stats.LastBeforeExit = append(stats.LastBeforeExit, TypeCount{Type: t, Count: n})
	}
	sort.Slice(stats.LastBeforeExit, func(a, b int) bool {
		if stats.LastBeforeExit[a].Count != stats.LastBeforeExit[b].Count {
			return stats.LastBeforeExit[a].Count > stats.LastBeforeExit[b].Count
		}
		return stats.LastBeforeExit[a].Type < stats.LastBeforeExit[b].Type
	})

	stats.MeanEventsBeforeExit = float64(totalBeforeExit) / total

	return stats, nil
}
