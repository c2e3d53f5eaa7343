package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tokenwise-ai/tokenwise/pkg/audit"
	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

const (
	// DefaultTTL is the entry lifetime when none is configured.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxSize bounds the in-process tier when none is configured.
	DefaultMaxSize = 1000
)

// ResponseCache is a two-tier, content-addressed store for model
// responses: a fast in-process map bounded by maxSize, and a durable
// directory holding one JSON file per key. Durable-tier entries are only
// pruned on TTL expiry; the memory tier additionally evicts
// oldest-inserted entries when it grows past maxSize.
//
// Lookups and stats are safe to call concurrently with each other, but
// Set and Clear require external synchronization in a multi-threaded
// host.
type ResponseCache struct {
	dir     string
	ttl     time.Duration
	maxSize int
	memory  map[string]memEntry
	seq     int64
	hits    atomic.Int64
	misses  atomic.Int64
	events  *audit.Logger
	now     func() time.Time
}

// memEntry pairs a cache entry with its memory-tier insertion sequence.
// Eviction orders on seq so that entries inserted within the same clock
// tick still evict in exact insertion order.
type memEntry struct {
	models.CacheEntry
	seq int64
}

// New creates a ResponseCache persisting to dir. Zero ttl or maxSize fall
// back to the defaults. The event logger may be nil.
func New(dir string, ttl time.Duration, maxSize int, events *audit.Logger) (*ResponseCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResponseCache{
		dir:     dir,
		ttl:     ttl,
		maxSize: maxSize,
		memory:  make(map[string]memEntry),
		events:  events,
		now:     time.Now,
	}, nil
}

// DefaultDir returns the per-user cache directory, ~/.tokenwise/cache.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cache"
	}
	return filepath.Join(home, ".tokenwise", "cache")
}

// Key computes the deterministic cache key for a call: a SHA-256 digest
// over the canonical concatenation of prompt, model, temperature, and
// (when set) max tokens. Identical inputs always produce identical keys.
func Key(prompt, model string, temperature float64, maxTokens int) string {
	parts := []string{prompt, model, strconv.FormatFloat(temperature, 'g', -1, 64)}
	if maxTokens > 0 {
		parts = append(parts, strconv.Itoa(maxTokens))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func (c *ResponseCache) expired(e models.CacheEntry, nowSec float64) bool {
	return nowSec-e.Timestamp > c.ttl.Seconds()
}

// Get returns the cached response for a call, if present and fresh. The
// memory tier is consulted first; a stale memory copy is purged rather
// than trusted, and the durable tier gets the final say. Valid durable
// entries are promoted back into memory; expired ones are deleted.
// Durable-tier read or parse errors count as misses, never as failures.
func (c *ResponseCache) Get(prompt, model string, temperature float64, maxTokens int) (json.RawMessage, bool) {
	key := Key(prompt, model, temperature, maxTokens)
	nowSec := epochSeconds(c.now())

	if e, ok := c.memory[key]; ok {
		if !c.expired(e.CacheEntry, nowSec) {
			c.hits.Add(1)
			c.logEvent(models.EventCacheHit, model, key)
			return e.Response, true
		}
		delete(c.memory, key)
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("cache: read entry: %v", err)
		}
		return c.miss(model, key)
	}
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("cache: parse entry: %v", err)
		return c.miss(model, key)
	}
	if c.expired(entry, nowSec) {
		if err := os.Remove(c.path(key)); err != nil {
			log.Printf("cache: remove expired entry: %v", err)
		}
		return c.miss(model, key)
	}

	c.insert(key, entry)
	c.evict()
	c.hits.Add(1)
	c.logEvent(models.EventCacheHit, model, key)
	return entry.Response, true
}

func (c *ResponseCache) miss(model, key string) (json.RawMessage, bool) {
	c.misses.Add(1)
	c.logEvent(models.EventCacheMiss, model, key)
	return nil, false
}

// Set stores a response in both tiers, then trims the memory tier back to
// maxSize, oldest-inserted first. Durable-tier write failures are logged
// and swallowed; the memory copy still serves this session.
func (c *ResponseCache) Set(prompt, model string, response json.RawMessage, temperature float64, maxTokens int) {
	key := Key(prompt, model, temperature, maxTokens)
	entry := models.CacheEntry{
		Timestamp: epochSeconds(c.now()),
		Response:  response,
	}

	c.insert(key, entry)

	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache: encode entry: %v", err)
	} else if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		log.Printf("cache: write entry: %v", err)
	}

	c.evict()
	c.logEvent(models.EventCacheStore, model, key)
}

func (c *ResponseCache) insert(key string, entry models.CacheEntry) {
	c.seq++
	c.memory[key] = memEntry{CacheEntry: entry, seq: c.seq}
}

func (c *ResponseCache) evict() {
	for len(c.memory) > c.maxSize {
		oldestKey := ""
		var oldest int64
		for k, e := range c.memory {
			if oldestKey == "" || e.seq < oldest {
				oldestKey, oldest = k, e.seq
			}
		}
		delete(c.memory, oldestKey)
	}
}

// Clear removes entries from both tiers and returns the count removed.
// With age > 0 only entries older than age go; otherwise everything does.
func (c *ResponseCache) Clear(age time.Duration) int {
	count := 0
	nowSec := epochSeconds(c.now())
	cutoff := nowSec - age.Seconds()

	if age > 0 {
		for k, e := range c.memory {
			if e.Timestamp < cutoff {
				delete(c.memory, k)
				count++
			}
		}
	} else {
		count += len(c.memory)
		c.memory = make(map[string]memEntry)
	}

	files, err := os.ReadDir(c.dir)
	if err != nil {
		log.Printf("cache: list entries: %v", err)
		return count
	}
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		p := filepath.Join(c.dir, f.Name())
		if age > 0 {
			data, err := os.ReadFile(p)
			if err != nil {
				log.Printf("cache: read entry: %v", err)
				continue
			}
			var entry models.CacheEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				log.Printf("cache: parse entry: %v", err)
				continue
			}
			if entry.Timestamp >= cutoff {
				continue
			}
		}
		if err := os.Remove(p); err != nil {
			log.Printf("cache: remove entry: %v", err)
			continue
		}
		count++
	}
	return count
}

// Stats reports per-tier entry counts and hit/miss counters.
func (c *ResponseCache) Stats() models.CacheStats {
	disk := 0
	if files, err := os.ReadDir(c.dir); err == nil {
		for _, f := range files {
			if strings.HasSuffix(f.Name(), ".json") {
				disk++
			}
		}
	}
	return models.CacheStats{
		MemoryEntries: len(c.memory),
		DiskEntries:   disk,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
	}
}

func (c *ResponseCache) logEvent(kind models.EventKind, model, key string) {
	if err := c.events.Log(models.Event{
		Kind:      kind,
		Model:     model,
		Detail:    key,
		CreatedAt: c.now().UTC(),
	}); err != nil {
		log.Printf("cache: event log: %v", err)
	}
}
