package optimizer

import (
	"strings"
	"testing"

	"github.com/tokenwise-ai/tokenwise/pkg/tokenizer"
)

func newTestOptimizer() (*Optimizer, *tokenizer.Counter) {
	c := tokenizer.New("gpt-4")
	return New(c), c
}

func TestNoopWithinBudget(t *testing.T) {
	o, _ := newTestOptimizer()
	fields := map[string]any{
		"summary": "a short summary",
		"notes":   "brief notes",
		"attempt": 3,
	}

	got := o.Optimize(fields, 100000, nil)
	for k, v := range fields {
		if got[k] != v {
			t.Errorf("field %q changed: %v", k, got[k])
		}
	}
}

func TestInputNotMutated(t *testing.T) {
	o, _ := newTestOptimizer()
	fields := map[string]any{
		"filler": strings.Repeat("padding words everywhere ", 200),
	}

	o.Optimize(fields, 10, nil)
	if !strings.HasPrefix(fields["filler"].(string), "padding") {
		t.Error("Optimize mutated its input map")
	}
}

func TestPriorityTrimmedLast(t *testing.T) {
	o, _ := newTestOptimizer()
	important := strings.Repeat("critical detail ", 30)
	filler := strings.Repeat("log line noise repeated over and over ", 125)
	fields := map[string]any{
		"important": important,
		"filler":    filler,
		"attempt":   7,
	}

	got := o.Optimize(fields, 50, []string{"important"})

	if got["filler"] != Sentinel {
		t.Errorf("filler should be sentinel-replaced, got %.40v", got["filler"])
	}
	imp, ok := got["important"].(string)
	if !ok || imp == "" || imp == Sentinel {
		t.Fatalf("important trimmed away entirely: %v", got["important"])
	}
	if !strings.HasPrefix(important, imp) {
		t.Error("important should only ever be truncated, never replaced")
	}
	if got["attempt"] != 7 {
		t.Errorf("non-string field changed: %v", got["attempt"])
	}
}

func TestPriorityUntouchedWhenNonPriorityAbsorbs(t *testing.T) {
	o, c := newTestOptimizer()
	important := "keep this exact content"
	filler := strings.Repeat("expendable context block ", 100)
	fields := map[string]any{
		"important": important,
		"filler":    filler,
	}

	// Budget for all of important plus a bit of filler: the excess fits
	// entirely inside filler, so important must come back verbatim.
	maxTokens := c.Count(important) + 10
	got := o.Optimize(fields, maxTokens, []string{"important"})

	if got["important"] != important {
		t.Errorf("important changed: %v", got["important"])
	}
	f, ok := got["filler"].(string)
	if !ok {
		t.Fatalf("filler is %T", got["filler"])
	}
	if f == filler || f == Sentinel {
		t.Errorf("filler should be truncated, got %.40v", f)
	}
}

func TestPartialTrimTruncatesLargestField(t *testing.T) {
	o, c := newTestOptimizer()
	big := strings.Repeat("verbose diagnostic output ", 40)
	small := "tiny note"
	fields := map[string]any{
		"big":   big,
		"small": small,
	}

	maxTokens := c.Count(big) + c.Count(small) - 5
	got := o.Optimize(fields, maxTokens, nil)

	if got["small"] != small {
		t.Errorf("small field changed: %v", got["small"])
	}
	b, ok := got["big"].(string)
	if !ok || b == big || b == Sentinel {
		t.Fatalf("big field should be truncated: %.40v", got["big"])
	}
	if !strings.HasPrefix(big, b) {
		t.Error("truncated field is not a prefix of the original")
	}
}

func TestResultFitsBudgetWithSlack(t *testing.T) {
	o, c := newTestOptimizer()
	fields := map[string]any{
		"a": strings.Repeat("first block of context ", 60),
		"b": strings.Repeat("second block of context ", 80),
		"c": strings.Repeat("third block of context ", 40),
	}

	maxTokens := 50
	got := o.Optimize(fields, maxTokens, nil)

	total := 0
	sentinels := 0
	for _, v := range got {
		if s, ok := v.(string); ok {
			total += c.Count(s)
			if s == Sentinel {
				sentinels++
			}
		}
	}
	// Sentinel strings themselves cost a few tokens beyond the budget.
	slack := sentinels*c.Count(Sentinel) + 5
	if total > maxTokens+slack {
		t.Errorf("result counts %d tokens, budget %d (+%d slack)", total, maxTokens, slack)
	}
}
