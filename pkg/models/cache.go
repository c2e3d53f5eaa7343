package models

import "encoding/json"

// CacheEntry is the durable form of one cached model response. Timestamp is
// epoch seconds at insertion; Response is kept opaque.
type CacheEntry struct {
	Timestamp float64         `json:"timestamp"`
	Response  json.RawMessage `json:"response"`
}

// CacheStats reports cache contents and performance counters.
type CacheStats struct {
	MemoryEntries int   `json:"memory_entries"`
	DiskEntries   int   `json:"disk_entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
}
