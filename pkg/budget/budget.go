package budget

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tokenwise-ai/tokenwise/pkg/audit"
	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

// Limits configures optional token ceilings. A zero value leaves that
// ceiling unset.
type Limits struct {
	Hourly int `yaml:"hourly" json:"hourly"`
	Daily  int `yaml:"daily" json:"daily"`
	Total  int `yaml:"total" json:"total"`
}

// Budget tracks cumulative token usage against configured ceilings and
// persists an append-only ledger across restarts.
//
// Budget is not safe for unsynchronized concurrent use; a multi-threaded
// host must serialize calls to TrackUsage externally.
type Budget struct {
	limits     Limits
	ledgerPath string
	entries    []models.UsageEntry
	total      int
	events     *audit.Logger
	now        func() time.Time
}

// ledgerDoc is the durable ledger layout: the full log plus the running
// total, overwritten as a whole on every save.
type ledgerDoc struct {
	UsageLog        []models.UsageEntry `json:"usage_log"`
	TotalTokensUsed int                 `json:"total_tokens_used"`
}

// New creates a Budget persisting to ledgerPath. Prior ledger state is
// loaded if present; a missing or corrupt ledger starts empty. The event
// logger may be nil.
func New(ledgerPath string, limits Limits, events *audit.Logger) *Budget {
	b := &Budget{
		limits:     limits,
		ledgerPath: ledgerPath,
		events:     events,
		now:        time.Now,
	}
	b.load()
	return b
}

// DefaultLedgerPath returns the per-user ledger location,
// ~/.tokenwise/token_usage.json.
func DefaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "token_usage.json"
	}
	return filepath.Join(home, ".tokenwise", "token_usage.json")
}

func (b *Budget) load() {
	data, err := os.ReadFile(b.ledgerPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("budget: read ledger: %v", err)
		}
		return
	}
	var doc ledgerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("budget: parse ledger, starting empty: %v", err)
		return
	}
	b.entries = doc.UsageLog
	b.total = doc.TotalTokensUsed

	// The running total must equal the sum of the log; a ledger edited or
	// truncated out-of-band gets repaired from the entries.
	sum := 0
	for _, e := range b.entries {
		sum += e.Tokens
	}
	if sum != b.total {
		log.Printf("budget: ledger total %d != entry sum %d, repairing", b.total, sum)
		b.total = sum
	}
}

// save overwrites the ledger file. Failures are logged and swallowed; the
// tracker keeps operating in memory for the rest of the session.
func (b *Budget) save() {
	if err := os.MkdirAll(filepath.Dir(b.ledgerPath), 0o755); err != nil {
		log.Printf("budget: create ledger dir: %v", err)
		return
	}
	entries := b.entries
	if entries == nil {
		entries = []models.UsageEntry{}
	}
	data, err := json.Marshal(ledgerDoc{UsageLog: entries, TotalTokensUsed: b.total})
	if err != nil {
		log.Printf("budget: encode ledger: %v", err)
		return
	}
	if err := os.WriteFile(b.ledgerPath, data, 0o644); err != nil {
		log.Printf("budget: write ledger: %v", err)
	}
}

// TrackUsage records tokens consumed by a completed call and reports
// whether usage stays within every configured ceiling. The entry is
// appended and persisted even when a ceiling is exceeded, since those
// tokens were already spent; a false return is advisory for the next
// call, not a gate on this one.
func (b *Budget) TrackUsage(tokens int, model, operation string) bool {
	if operation == "" {
		operation = "completion"
	}
	now := b.now().UTC()
	b.entries = append(b.entries, models.UsageEntry{
		Tokens:    tokens,
		Model:     model,
		Operation: operation,
		Timestamp: now,
	})
	b.total += tokens

	allowed := b.withinLimits(now)
	b.save()

	if err := b.events.Log(models.Event{
		Kind:      models.EventUsage,
		Model:     model,
		Operation: operation,
		Tokens:    tokens,
		Allowed:   allowed,
		CreatedAt: now,
	}); err != nil {
		log.Printf("budget: event log: %v", err)
	}
	return allowed
}

// withinLimits checks ceilings from coarsest to finest and stops at the
// first one exceeded.
func (b *Budget) withinLimits(now time.Time) bool {
	if b.limits.Total > 0 && b.total > b.limits.Total {
		log.Printf("budget: total ceiling exceeded: %d/%d", b.total, b.limits.Total)
		return false
	}
	if b.limits.Daily > 0 {
		if used := b.windowTokens(startOfDay(now)); used > b.limits.Daily {
			log.Printf("budget: daily ceiling exceeded: %d/%d", used, b.limits.Daily)
			return false
		}
	}
	if b.limits.Hourly > 0 {
		if used := b.windowTokens(startOfHour(now)); used > b.limits.Hourly {
			log.Printf("budget: hourly ceiling exceeded: %d/%d", used, b.limits.Hourly)
			return false
		}
	}
	return true
}

// windowTokens sums entries recorded at or after since.
func (b *Budget) windowTokens(since time.Time) int {
	total := 0
	for _, e := range b.entries {
		if !e.Timestamp.Before(since) {
			total += e.Tokens
		}
	}
	return total
}

// Stats returns usage aggregated over the ledger. Window boundaries match
// the ones TrackUsage enforces.
func (b *Budget) Stats() models.UsageStats {
	now := b.now().UTC()
	stats := models.UsageStats{
		TotalTokens:  b.total,
		DailyTokens:  b.windowTokens(startOfDay(now)),
		HourlyTokens: b.windowTokens(startOfHour(now)),
		DailyBudget:  b.limits.Daily,
		HourlyBudget: b.limits.Hourly,
		TotalBudget:  b.limits.Total,
		ModelUsage:   make(map[string]int),
	}
	for _, e := range b.entries {
		stats.ModelUsage[e.Model] += e.Tokens
	}
	return stats
}

// Window boundaries are UTC calendar day and clock hour. Local wall-clock
// windows shift across timezones and DST transitions, so the policy is
// pinned to UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}
