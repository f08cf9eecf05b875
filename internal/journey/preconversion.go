package journey

import (
	"sort"

	"github.com/journey-rag/backend/internal/graph"
)

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// PreConversionStats describes what converting sessions touched before their
// first purchase event.
type PreConversionStats struct {
	Cohort              string          `json:"cohort"`
	ConvertingSessions  int             `json:"converting_sessions"`
	CategoriesViewed    []CategoryCount `json:"categories_viewed"`
	MeanEventsToPurchase float64        `json:"mean_events_to_purchase"`
}

// PreConversion walks each converting session in the cohort up to its first
// purchase event, counting the product categories involved along the way.
func PreConversion(g *graph.Graph, c Cohort) (*PreConversionStats, error) {
	cohort := c.And(Converting())
	sessions := cohort.sessions(g)

	stats := &PreConversionStats{
		Cohort:             c.Name,
		ConvertingSessions: len(sessions),
	}
	if len(sessions) == 0 {
		return stats, nil
	}

	categories := make(map[string]int)
	totalSteps := 0

	for _, s := range sessions {
		if err := checkSession(g, s); err != nil {
			return nil, err
		}
		for _, e := range g.Session(s).Events {
			ev := g.Event(e)
			if ev.Type == graph.EventPurchase {
				break
			}
			totalSteps++
			if ev.Product != graph.None {
				categories[g.Product(ev.Product).Category]++
			}
		}
	}

	for cat, n := range categories {
		stats.CategoriesViewed = append(stats.CategoriesViewed, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(stats.CategoriesViewed, func(a, b int) bool {
		if stats.CategoriesViewed[a].Count != stats.CategoriesViewed[b].Count {
			return stats.CategoriesViewed[a].Count > stats.CategoriesViewed[b].Count
		}
		return stats.CategoriesViewed[a].Category < stats.CategoriesViewed[b].Category
	})

	stats.MeanEventsToPurchase = float64(totalSteps) / float64(len(sessions))

	return stats, nil
}
