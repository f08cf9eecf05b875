package graph

import (
	"time"
)

// EventType is the closed set of clickstream event types.
type EventType string

const (
	EventPageView  EventType = "page_view"
	EventClick     EventType = "click"
	EventSearch    EventType = "search"
	EventAddToCart EventType = "add_to_cart"
	EventPurchase  EventType = "purchase"
	EventExit      EventType = "exit"
)

func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventClick, EventSearch, EventAddToCart, EventPurchase, EventExit:
		return true
	}
	return false
}

// Terminal reports whether the type closes a session.
func (t EventType) Terminal() bool {
	return t == EventExit
}

// None marks an absent arena reference.
const None int32 = -1

type User struct {
	ID       int64     `json:"id"`
	Segment  string    `json:"segment"`
	LTV      float64   `json:"ltv"`
	Churned  bool      `json:"churned"`
	Sessions []int32   `json:"sessions"`
}

type Session struct {
	ID     int64     `json:"id"`
	User   int32     `json:"user"`
	Start  time.Time `json:"start"`
	Events []int32   `json:"events"`
}

type Event struct {
	ID        int64     `json:"id"`
	Session   int32     `json:"session"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Product   int32     `json:"product"`
	Next      int32     `json:"next"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

type Product struct {
	ID       int64   `json:"id"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// Graph is the immutable journey graph. Entities live in arenas and refer to
// each other by arena index, so the whole structure can be shared read-only
// across concurrent queries. All mutation happens inside the builder; nothing
// here changes state after construction.
type Graph struct {
	users    []User
	sessions []Session
	events   []Event
	products []Product

	userIdx    map[int64]int32
	sessionIdx map[int64]int32
	productIdx map[int64]int32
}

func (g *Graph) NumUsers() int32    { return int32(len(g.users)) }
func (g *Graph) NumSessions() int32 { return int32(len(g.sessions)) }
func (g *Graph) NumEvents() int32   { return int32(len(g.events)) }
func (g *Graph) NumProducts() int32 { return int32(len(g.products)) }

func (g *Graph) User(i int32) User       { return g.users[i] }
func (g *Graph) Session(i int32) Session { return g.sessions[i] }
func (g *Graph) Event(i int32) Event     { return g.events[i] }
func (g *Graph) Product(i int32) Product { return g.products[i] }

func (g *Graph) UserByID(id int64) (User, bool) {
	i, ok := g.userIdx[id]
	if !ok {
		return User{}, false
	}
	return g.users[i], true
}

func (g *Graph) SessionByID(id int64) (Session, bool) {
	i, ok := g.sessionIdx[id]
	if !ok {
		return Session{}, false
	}
	return g.sessions[i], true
}

func (g *Graph) ProductByID(id int64) (Product, bool) {
	i, ok := g.productIdx[id]
	if !ok {
		return Product{}, false
	}
	return g.products[i], true
}

// UserSessions returns the arena indices of a user's sessions in the order
// they appeared in the input.
func (g *Graph) UserSessions(id int64) []int32 {
	i, ok := g.userIdx[id]
	if !ok {
		return nil
	}
	return g.users[i].Sessions
}

// TypeSequence returns the ordered event-type sequence of a session,
// including the terminal marker.
func (g *Graph) TypeSequence(session int32) []EventType {
	s := g.sessions[session]
	seq := make([]EventType, len(s.Events))
	for i, e := range s.Events {
		seq[i] = g.events[e].Type
	}
	return seq
}

type Stats struct {
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	NodeTypes  map[string]int `json:"node_types"`
	EdgeTypes  map[string]int `json:"edge_types"`
}

// Stats reports node and edge counts by type for diagnostics.
func (g *Graph) Stats() Stats {
	involves := 0
	for i := range g.events {
		if g.events[i].Product != None {
			involves++
		}
	}

	nodes := map[string]int{
		"User":    len(g.users),
		"Session": len(g.sessions),
		"Event":   len(g.events),
		"Product": len(g.products),
	}
	edges := map[string]int{
		"STARTED":  len(g.sessions),
		"CONTAINS": len(g.events),
		"NEXT":     len(g.events) - len(g.sessions),
		"INVOLVES": involves,
	}

	total := 0
	for _, n := range nodes {
		total += n
	}
	totalEdges := 0
	for _, n := range edges {
		totalEdges += n
	}

	return Stats{
		TotalNodes: total,
		TotalEdges: totalEdges,
		NodeTypes:  nodes,
		EdgeTypes:  edges,
	}
}
