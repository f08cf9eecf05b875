package ingestion

import (
	"fmt"
	"strings"

	"github.com/journey-rag/backend/internal/graph"
)

// SessionDocument is a plain-text rendering of one session for the vector
// baseline: user context plus the action sequence, with no graph structure.
type SessionDocument struct {
	ID        string
	SessionID int64
	UserID    int64
	Segment   string
	Churned   bool
	Text      string
}

// SessionDocuments renders every session in the graph into a baseline
// document. Building from the graph rather than the raw tables keeps the two
// retrievers looking at the exact same ordered sessions.
func SessionDocuments(g *graph.Graph) []SessionDocument {
	docs := make([]SessionDocument, 0, g.NumSessions())

	for i := int32(0); i < g.NumSessions(); i++ {
		s := g.Session(i)
		u := g.User(s.User)

		var actions []string
		for _, e := range s.Events {
			ev := g.Event(e)
			if ev.Synthetic {
				continue
			}
			desc := string(ev.Type)
			if ev.Product != graph.None {
				p := g.Product(ev.Product)
				desc += fmt.Sprintf(" %s ($%.2f)", p.Category, p.Price)
			}
			actions = append(actions, desc)
		}

		text := fmt.Sprintf("User (segment: %s, LTV: $%.2f, churned: %t) | Actions: %s",
			u.Segment, u.LTV, u.Churned, strings.Join(actions, ", "))

		docs = append(docs, SessionDocument{
			ID:        fmt.Sprintf("session_%d", s.ID),
			SessionID: s.ID,
			UserID:    u.ID,
			Segment:   u.Segment,
			Churned:   u.Churned,
			Text:      text,
		})
	}

	return docs
}
