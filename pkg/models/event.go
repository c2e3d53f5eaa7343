package models

import "time"

// EventKind classifies entries in the event log.
type EventKind string

const (
	EventUsage      EventKind = "usage"
	EventCacheHit   EventKind = "cache_hit"
	EventCacheMiss  EventKind = "cache_miss"
	EventCacheStore EventKind = "cache_store"
)

// Event is one bookkeeping decision worth auditing: a budget check outcome
// or a cache tier lookup result.
type Event struct {
	ID        int64     `json:"id"`
	Kind      EventKind `json:"kind"`
	Model     string    `json:"model"`
	Operation string    `json:"operation,omitempty"`
	Tokens    int       `json:"tokens"`
	Allowed   bool      `json:"allowed"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventQueryOpts specifies filters for querying the event log.
type EventQueryOpts struct {
	Kind  EventKind
	Model string
	Since time.Time
	Limit int
}

// EventStat holds aggregate event counts for a kind/day combination.
type EventStat struct {
	Kind   string
	Day    string
	Count  int
	Tokens int
}
