package journey

import (
	"github.com/journey-rag/backend/internal/graph"
)

// Scalars are the per-cohort comparison metrics. Mean and rate fields are
// pointers so an empty cohort reports null rather than a division artifact.
type Scalars struct {
	Users                   int      `json:"users"`
	Sessions                int      `json:"sessions"`
	Events                  int      `json:"events"`
	MeanEventsPerSession    *float64 `json:"mean_events_per_session"`
	ConversionRate          *float64 `json:"conversion_rate"`
	MeanPurchasesPerSession *float64 `json:"mean_purchases_per_session"`
	MeanLTV                 *float64 `json:"mean_ltv"`
}

type CohortStats struct {
	Name    string  `json:"name"`
	Scalars Scalars `json:"scalars"`
}

// Diff is A minus B per metric, null when either side is null.
type Diff struct {
	MeanEventsPerSession    *float64 `json:"mean_events_per_session"`
	ConversionRate          *float64 `json:"conversion_rate"`
	MeanPurchasesPerSession *float64 `json:"mean_purchases_per_session"`
	MeanLTV                 *float64 `json:"mean_ltv"`
}

type Comparison struct {
	A    CohortStats `json:"cohort_a"`
	B    CohortStats `json:"cohort_b"`
	Diff Diff        `json:"difference"`
}

// Compare computes the comparative scalars for two cohorts using identical
// metric definitions on both sides. Given the same graph and predicates the
// result is bit-for-bit reproducible; there is no sampling anywhere.
func Compare(g *graph.Graph, a, b Cohort) (*Comparison, error) {
	sa, err := analyze(g, a)
	if err != nil {
		return nil, err
	}
	sb, err := analyze(g, b)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		A: CohortStats{Name: a.Name, Scalars: sa},
		B: CohortStats{Name: b.Name, Scalars: sb},
		Diff: Diff{
			MeanEventsPerSession:    sub(sa.MeanEventsPerSession, sb.MeanEventsPerSession),
			ConversionRate:          sub(sa.ConversionRate, sb.ConversionRate),
			MeanPurchasesPerSession: sub(sa.MeanPurchasesPerSession, sb.MeanPurchasesPerSession),
			MeanLTV:                 sub(sa.MeanLTV, sb.MeanLTV),
		},
	}, nil
}

func analyze(g *graph.Graph, c Cohort) (Scalars, error) {
	sessions := c.sessions(g)

	s := Scalars{Sessions: len(sessions)}

	users := make(map[int32]bool)
	events := 0
	converting := 0
	purchases := 0
	ltvSum := 0.0

	for _, idx := range sessions {
		if err := checkSession(g, idx); err != nil {
			return Scalars{}, err
		}
		sess := g.Session(idx)
		if !users[sess.User] {
			users[sess.User] = true
			ltvSum += g.User(sess.User).LTV
		}

		// The terminal marker is bookkeeping, not behavior; it is excluded
		// from the events-per-session metric.
		observed := 0
		sessionPurchases := 0
		for _, e := range sess.Events {
			ev := g.Event(e)
			if ev.Type.Terminal() && ev.Synthetic {
				continue
			}
			observed++
			if ev.Type == graph.EventPurchase {
				sessionPurchases++
			}
		}
		events += observed
		purchases += sessionPurchases
		if sessionPurchases > 0 {
			converting++
		}
	}

	s.Users = len(users)
	s.Events = events

	if len(sessions) > 0 {
		n := float64(len(sessions))
		s.MeanEventsPerSession = ptr(float64(events) / n)
		s.ConversionRate = ptr(float64(converting) / n)
		s.MeanPurchasesPerSession = ptr(float64(purchases) / n)
	}
	if len(users) > 0 {
		s.MeanLTV = ptr(ltvSum / float64(len(users)))
	}

	return s, nil
}

func ptr(v float64) *float64 { return &v }

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return ptr(*a - *b)
}
