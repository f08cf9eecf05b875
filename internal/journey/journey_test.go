package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/storage/models"
)

var testBase = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func ts(minutes int) time.Time {
	return testBase.Add(time.Duration(minutes) * time.Minute)
}

func pid(id int64) *int64 {
	return &id
}

// buildJourneyGraph constructs the shared five-session fixture:
//
//	s1 (user 1, active):  page_view, click(El), add_to_cart(El), purchase(El)
//	s2 (user 2, active):  search, click(El), purchase(El)
//	s3 (user 3, churned): page_view, search, exit
//	s4 (user 4, churned): click(Fa), exit
//	s5 (user 3, churned): search, exit
func buildJourneyGraph(t *testing.T) *graph.Graph {
	t.Helper()

	tables := &models.Tables{
		Users: []models.UserRecord{
			{ID: 1, Segment: "high_value", LTV: 500},
			{ID: 2, Segment: "high_value", LTV: 300},
			{ID: 3, Segment: "low", LTV: 20, Churned: true},
			{ID: 4, Segment: "low", LTV: 40, Churned: true},
		},
		Products: []models.ProductRecord{
			{ID: 10, Category: "Electronics", Price: 99.99},
			{ID: 20, Category: "Fashion", Price: 49.99},
		},
		Events: []models.EventRecord{
			{ID: 0, SessionID: 1, UserID: 1, Type: "page_view", Timestamp: ts(0)},
			{ID: 1, SessionID: 1, UserID: 1, Type: "click", Timestamp: ts(1), ProductID: pid(10)},
			{ID: 2, SessionID: 1, UserID: 1, Type: "add_to_cart", Timestamp: ts(2), ProductID: pid(10)},
			{ID: 3, SessionID: 1, UserID: 1, Type: "purchase", Timestamp: ts(3), ProductID: pid(10)},

			{ID: 4, SessionID: 2, UserID: 2, Type: "search", Timestamp: ts(0)},
			{ID: 5, SessionID: 2, UserID: 2, Type: "click", Timestamp: ts(1), ProductID: pid(10)},
			{ID: 6, SessionID: 2, UserID: 2, Type: "purchase", Timestamp: ts(2), ProductID: pid(10)},

			{ID: 7, SessionID: 3, UserID: 3, Type: "page_view", Timestamp: ts(0)},
			{ID: 8, SessionID: 3, UserID: 3, Type: "search", Timestamp: ts(1)},
			{ID: 9, SessionID: 3, UserID: 3, Type: "exit", Timestamp: ts(2)},

			{ID: 10, SessionID: 4, UserID: 4, Type: "click", Timestamp: ts(0), ProductID: pid(20)},
			{ID: 11, SessionID: 4, UserID: 4, Type: "exit", Timestamp: ts(1)},

			{ID: 12, SessionID: 5, UserID: 3, Type: "search", Timestamp: ts(10)},
			{ID: 13, SessionID: 5, UserID: 3, Type: "exit", Timestamp: ts(11)},
		},
	}

	g, err := graph.Build(tables)
	require.NoError(t, err)
	return g
}

// churnedFixtureTables returns 50 single-session churned users where exactly
// 9 sessions end in add_to_cart before exiting.
func churnedFixtureTables(t *testing.T) *models.Tables {
	t.Helper()

	tables := &models.Tables{
		Products: []models.ProductRecord{{ID: 1, Category: "Home", Price: 10}},
	}

	eventID := int64(0)
	for i := 0; i < 50; i++ {
		tables.Users = append(tables.Users, models.UserRecord{
			ID: int64(i), Segment: "low", LTV: 10, Churned: true,
		})

		lastType := "page_view"
		if i < 9 {
			lastType = "add_to_cart"
		}
		tables.Events = append(tables.Events,
			models.EventRecord{
				ID: eventID, SessionID: int64(i), UserID: int64(i),
				Type: "search", Timestamp: ts(i * 10),
			},
			models.EventRecord{
				ID: eventID + 1, SessionID: int64(i), UserID: int64(i),
				Type: lastType, Timestamp: ts(i*10 + 1), ProductID: pid(1),
			},
		)
		eventID += 2
	}

	return tables
}

