package journey

import (
	"errors"
	"fmt"

	"github.com/journey-rag/backend/internal/graph"
)

// ErrCorrupted flags a structural invariant violation detected at query time.
// The builder guarantees these never occur, so hitting one means the graph
// handle is not trustworthy and the query must fail rather than return
// partial statistics.
var ErrCorrupted = errors.New("journey graph corrupted")

// Cohort selects a subset of sessions. MatchUser filters on the owning user's
// fixed attributes; MatchSession filters on session structure. A nil matcher
// accepts everything.
type Cohort struct {
	Name         string
	MatchUser    func(graph.User) bool
	MatchSession func(*graph.Graph, int32) bool
}

func Everyone() Cohort {
	return Cohort{Name: "all sessions"}
}

func Churned() Cohort {
	return Cohort{
		Name:      "churned users",
		MatchUser: func(u graph.User) bool { return u.Churned },
	}
}

func Active() Cohort {
	return Cohort{
		Name:      "active users",
		MatchUser: func(u graph.User) bool { return !u.Churned },
	}
}

func Segment(name string) Cohort {
	return Cohort{
		Name:      name + " segment",
		MatchUser: func(u graph.User) bool { return u.Segment == name },
	}
}

func LTVAtLeast(min float64) Cohort {
	return Cohort{
		Name:      fmt.Sprintf("LTV >= %.0f", min),
		MatchUser: func(u graph.User) bool { return u.LTV >= min },
	}
}

func LTVBelow(max float64) Cohort {
	return Cohort{
		Name:      fmt.Sprintf("LTV < %.0f", max),
		MatchUser: func(u graph.User) bool { return u.LTV < max },
	}
}

// Converting selects sessions that contain at least one purchase event.
func Converting() Cohort {
	return Cohort{
		Name: "converting sessions",
		MatchSession: func(g *graph.Graph, s int32) bool {
			return sessionHasType(g, s, graph.EventPurchase)
		},
	}
}

// ViewedCategory selects sessions with at least one event involving a
// product of the given category.
func ViewedCategory(category string) Cohort {
	return Cohort{
		Name: category + " sessions",
		MatchSession: func(g *graph.Graph, s int32) bool {
			for _, e := range g.Session(s).Events {
				ev := g.Event(e)
				if ev.Product != graph.None && g.Product(ev.Product).Category == category {
					return true
				}
			}
			return false
		},
	}
}

// And narrows a cohort with an additional session-structure condition.
func (c Cohort) And(other Cohort) Cohort {
	merged := Cohort{Name: c.Name + ", " + other.Name}
	merged.MatchUser = func(u graph.User) bool {
		return (c.MatchUser == nil || c.MatchUser(u)) &&
			(other.MatchUser == nil || other.MatchUser(u))
	}
	merged.MatchSession = func(g *graph.Graph, s int32) bool {
		return (c.MatchSession == nil || c.MatchSession(g, s)) &&
			(other.MatchSession == nil || other.MatchSession(g, s))
	}
	return merged
}

// sessions enumerates matching session arena indices in arena order, which is
// input order, so every aggregation downstream is deterministic.
func (c Cohort) sessions(g *graph.Graph) []int32 {
	var out []int32
	for i := int32(0); i < g.NumSessions(); i++ {
		if c.MatchUser != nil && !c.MatchUser(g.User(g.Session(i).User)) {
			continue
		}
		if c.MatchSession != nil && !c.MatchSession(g, i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func sessionHasType(g *graph.Graph, s int32, t graph.EventType) bool {
	for _, e := range g.Session(s).Events {
		if g.Event(e).Type == t {
			return true
		}
	}
	return false
}

// checkSession verifies the builder's invariants still hold: a non-empty
// chain ending in exactly one terminal event.
func checkSession(g *graph.Graph, s int32) error {
	events := g.Session(s).Events
	if len(events) == 0 {
		return fmt.Errorf("%w: session %d has no events", ErrCorrupted, g.Session(s).ID)
	}
	for i, e := range events {
		terminal := g.Event(e).Type.Terminal()
		if terminal != (i == len(events)-1) {
			return fmt.Errorf("%w: session %d terminal marker misplaced", ErrCorrupted, g.Session(s).ID)
		}
	}
	return nil
}
