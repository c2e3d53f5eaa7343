package optimizer

import (
	"sort"

	"github.com/tokenwise-ai/tokenwise/pkg/tokenizer"
)

// Sentinel replaces the content of a field dropped entirely during
// trimming, so downstream consumers can tell removal from silent
// shortening.
const Sentinel = "[Content trimmed to reduce token usage]"

// Optimizer trims a named-field bag of text down to a token ceiling,
// sacrificing the most expensive non-priority content first.
type Optimizer struct {
	counter *tokenizer.Counter
}

// New creates an Optimizer counting with the given Counter. A nil counter
// uses the default encoding.
func New(counter *tokenizer.Counter) *Optimizer {
	if counter == nil {
		counter = tokenizer.New("")
	}
	return &Optimizer{counter: counter}
}

// Optimize returns a copy of fields whose string values together fit
// within maxTokens. Fields already within budget come back unchanged.
// Otherwise non-priority string fields are trimmed first, largest first:
// a field whose whole count fits in the remaining excess is replaced with
// Sentinel, the first that does not is truncated to absorb the rest.
// Priority fields are only touched once every non-priority field is
// spent. Non-string values pass through untouched.
func (o *Optimizer) Optimize(fields map[string]any, maxTokens int, priorityKeys []string) map[string]any {
	result := make(map[string]any, len(fields))
	for k, v := range fields {
		result[k] = v
	}

	counts := make(map[string]int)
	total := 0
	for k, v := range result {
		if s, ok := v.(string); ok {
			n := o.counter.Count(s)
			counts[k] = n
			total += n
		}
	}
	if total <= maxTokens {
		return result
	}
	excess := total - maxTokens

	priority := make(map[string]bool, len(priorityKeys))
	for _, k := range priorityKeys {
		priority[k] = true
	}
	var normal, last []string
	for k := range counts {
		if priority[k] {
			last = append(last, k)
		} else {
			normal = append(normal, k)
		}
	}
	// Largest first; ties break on key so the order is deterministic.
	byCount := func(keys []string) {
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] > counts[keys[j]]
			}
			return keys[i] < keys[j]
		})
	}
	byCount(normal)
	byCount(last)

	excess = o.trim(result, counts, normal, excess)
	if excess > 0 {
		o.trim(result, counts, last, excess)
	}
	return result
}

func (o *Optimizer) trim(result map[string]any, counts map[string]int, keys []string, excess int) int {
	for _, k := range keys {
		if excess <= 0 {
			break
		}
		n := counts[k]
		if n <= excess {
			result[k] = Sentinel
			excess -= n
		} else {
			result[k] = o.counter.Truncate(result[k].(string), n-excess)
			excess = 0
		}
	}
	return excess
}
