package graph

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/storage/models"
	"github.com/journey-rag/backend/pkg/logger"
)

// Build constructs the journey graph from the three input tables in a single
// batch pass. It either returns a graph satisfying every structural invariant
// or an error; a partially built graph is never returned.
//
// Events are grouped by session id and stable-sorted by timestamp, so ties
// keep their input order. Consecutive events are linked with NEXT references
// and a synthetic exit event is appended when a session's last observed event
// is not already terminal.
func Build(t *models.Tables) (*Graph, error) {
	g := &Graph{
		userIdx:    make(map[int64]int32, len(t.Users)),
		sessionIdx: make(map[int64]int32),
		productIdx: make(map[int64]int32, len(t.Products)),
	}

	for i := range t.Users {
		u := t.Users[i]
		if u.ID < 0 {
			return nil, fmt.Errorf("user %d: negative id", u.ID)
		}
		if u.Segment == "" {
			return nil, fmt.Errorf("user %d: missing segment", u.ID)
		}
		if _, dup := g.userIdx[u.ID]; dup {
			return nil, fmt.Errorf("user %d: duplicate id", u.ID)
		}
		g.userIdx[u.ID] = int32(len(g.users))
		g.users = append(g.users, User{
			ID:      u.ID,
			Segment: u.Segment,
			LTV:     u.LTV,
			Churned: u.Churned,
		})
	}

	for i := range t.Products {
		p := t.Products[i]
		if p.ID < 0 {
			return nil, fmt.Errorf("product %d: negative id", p.ID)
		}
		if p.Category == "" {
			return nil, fmt.Errorf("product %d: missing category", p.ID)
		}
		if _, dup := g.productIdx[p.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate id", p.ID)
		}
		g.productIdx[p.ID] = int32(len(g.products))
		g.products = append(g.products, Product{
			ID:       p.ID,
			Category: p.Category,
			Price:    p.Price,
		})
	}

	// Group event record indices by session, preserving input order within
	// each group so the stable sort below can use it as the tiebreak.
	type sessionGroup struct {
		id     int64
		user   int32
		events []int
	}
	var groups []*sessionGroup
	groupIdx := make(map[int64]*sessionGroup)

	for i := range t.Events {
		e := t.Events[i]
		if e.ID < 0 {
			return nil, fmt.Errorf("event %d: negative id", e.ID)
		}
		if e.Timestamp.IsZero() {
			return nil, fmt.Errorf("event %d: missing timestamp", e.ID)
		}
		if !EventType(e.Type).Valid() {
			return nil, fmt.Errorf("event %d: unknown event type %q", e.ID, e.Type)
		}
		userArena, ok := g.userIdx[e.UserID]
		if !ok {
			return nil, fmt.Errorf("event %d: dangling user reference %d", e.ID, e.UserID)
		}
		if e.ProductID != nil {
			if _, ok := g.productIdx[*e.ProductID]; !ok {
				return nil, fmt.Errorf("event %d: dangling product reference %d", e.ID, *e.ProductID)
			}
		}

		grp, ok := groupIdx[e.SessionID]
		if !ok {
			grp = &sessionGroup{id: e.SessionID, user: userArena}
			groupIdx[e.SessionID] = grp
			groups = append(groups, grp)
		} else if grp.user != userArena {
			return nil, fmt.Errorf("session %d: events reference multiple users (%d and %d)",
				e.SessionID, g.users[grp.user].ID, e.UserID)
		}
		grp.events = append(grp.events, i)
	}

	for _, grp := range groups {
		sort.SliceStable(grp.events, func(a, b int) bool {
			return t.Events[grp.events[a]].Timestamp.Before(t.Events[grp.events[b]].Timestamp)
		})

		sessionArena := int32(len(g.sessions))
		g.sessionIdx[grp.id] = sessionArena

		session := Session{
			ID:    grp.id,
			User:  grp.user,
			Start: t.Events[grp.events[0]].Timestamp,
		}

		for pos, recIdx := range grp.events {
			rec := t.Events[recIdx]
			if EventType(rec.Type).Terminal() && pos != len(grp.events)-1 {
				return nil, fmt.Errorf("session %d: terminal event %d is not last", grp.id, rec.ID)
			}

			product := None
			if rec.ProductID != nil {
				product = g.productIdx[*rec.ProductID]
			}

			eventArena := int32(len(g.events))
			if pos > 0 {
				g.events[session.Events[pos-1]].Next = eventArena
			}
			g.events = append(g.events, Event{
				ID:        rec.ID,
				Session:   sessionArena,
				Type:      EventType(rec.Type),
				Timestamp: rec.Timestamp,
				Product:   product,
				Next:      None,
			})
			session.Events = append(session.Events, eventArena)
		}

		// Every session resolves to exactly one terminal state. When the
		// data does not end with one, close the chain synthetically.
		last := g.events[session.Events[len(session.Events)-1]]
		if !last.Type.Terminal() {
			eventArena := int32(len(g.events))
			g.events[session.Events[len(session.Events)-1]].Next = eventArena
			g.events = append(g.events, Event{
				ID:        -(grp.id + 1),
				Session:   sessionArena,
				Type:      EventExit,
				Timestamp: last.Timestamp,
				Product:   None,
				Next:      None,
				Synthetic: true,
			})
			session.Events = append(session.Events, eventArena)
		}

		g.sessions = append(g.sessions, session)
		g.users[grp.user].Sessions = append(g.users[grp.user].Sessions, sessionArena)
	}

	stats := g.Stats()
	logger.Info("Journey graph built",
		zap.Int("nodes", stats.TotalNodes),
		zap.Int("edges", stats.TotalEdges),
		zap.Int("sessions", len(g.sessions)),
	)

	return g, nil
}
