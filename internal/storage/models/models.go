package models

import "time"

// UserRecord, ProductRecord, and EventRecord mirror the three flat input
// tables produced by the data generator or an upstream ETL job.

type UserRecord struct {
	ID      int64
	Segment string
	LTV     float64
	Churned bool
}

type ProductRecord struct {
	ID       int64
	Category string
	Price    float64
}

type EventRecord struct {
	ID        int64
	SessionID int64
	UserID    int64
	Type      string
	Timestamp time.Time
	ProductID *int64
}

type Tables struct {
	Users    []UserRecord
	Products []ProductRecord
	Events   []EventRecord
}

type QueryRecord struct {
	ID        string
	UserID    string
	Question  string
	Method    string
	Intent    string
	Context   string
	Response  string
	LatencyMS int
	CreatedAt time.Time
}

type Feedback struct {
	ID        int
	QueryID   string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}
