package cache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

func TestWrapMissThenHit(t *testing.T) {
	c := newTestCache(t, time.Hour, 10)

	calls := 0
	fn := c.Wrap(func(req Request, p Params) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`"fresh"`), nil
	})

	p := Params{Model: "gpt-4", Temperature: 0.2, MaxTokens: 100}

	got, err := fn(TextPrompt("hello"), p)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `"fresh"` || calls != 1 {
		t.Fatalf("first call: got %s, calls %d", got, calls)
	}

	got, err = fn(TextPrompt("hello"), p)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `"fresh"` {
		t.Errorf("cached call: got %s", got)
	}
	if calls != 1 {
		t.Errorf("wrapped function invoked %d times, want 1", calls)
	}
}

func TestWrapDistinctParams(t *testing.T) {
	c := newTestCache(t, time.Hour, 10)

	calls := 0
	fn := c.Wrap(func(req Request, p Params) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`"r"`), nil
	})

	fn(TextPrompt("hello"), Params{Model: "gpt-4"})
	fn(TextPrompt("hello"), Params{Model: "gpt-4o"})
	if calls != 2 {
		t.Errorf("different models should not share entries, calls = %d", calls)
	}
}

func TestWrapMessageList(t *testing.T) {
	c := newTestCache(t, time.Hour, 10)

	calls := 0
	fn := c.Wrap(func(req Request, p Params) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`"r"`), nil
	})

	msgs := MessageList{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}
	p := Params{Model: "gpt-4"}

	fn(msgs, p)
	fn(msgs, p)
	if calls != 1 {
		t.Errorf("identical message lists should share one entry, calls = %d", calls)
	}

	// Reordering messages changes the canonical form.
	reordered := MessageList{msgs[1], msgs[0]}
	fn(reordered, p)
	if calls != 2 {
		t.Errorf("reordered messages should miss, calls = %d", calls)
	}
}

func TestWrapBypassWithoutPrompt(t *testing.T) {
	c := newTestCache(t, time.Hour, 10)

	calls := 0
	fn := c.Wrap(func(req Request, p Params) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`"r"`), nil
	})

	for _, req := range []Request{nil, TextPrompt(""), MessageList{}} {
		fn(req, Params{Model: "gpt-4"})
		fn(req, Params{Model: "gpt-4"})
	}
	if calls != 6 {
		t.Errorf("unextractable requests must always call through, calls = %d", calls)
	}
	if stats := c.Stats(); stats.DiskEntries != 0 {
		t.Errorf("bypass stored %d entries", stats.DiskEntries)
	}
}

func TestWrapErrorNotCached(t *testing.T) {
	c := newTestCache(t, time.Hour, 10)

	calls := 0
	fail := true
	fn := c.Wrap(func(req Request, p Params) (json.RawMessage, error) {
		calls++
		if fail {
			return nil, errors.New("upstream down")
		}
		return json.RawMessage(`"ok"`), nil
	})

	p := Params{Model: "gpt-4"}
	if _, err := fn(TextPrompt("hello"), p); err == nil {
		t.Fatal("expected error from wrapped function")
	}

	fail = false
	got, err := fn(TextPrompt("hello"), p)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `"ok"` || calls != 2 {
		t.Errorf("recovery call: got %s, calls %d", got, calls)
	}
}

func TestMessageListCanonicalForm(t *testing.T) {
	m := MessageList{{Role: "user", Content: "hi"}}
	text, ok := m.promptText()
	if !ok {
		t.Fatal("expected extractable prompt")
	}
	var decoded []models.ChatMessage
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("canonical form is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Content != "hi" {
		t.Errorf("decoded %+v", decoded)
	}
}
