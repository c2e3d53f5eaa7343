package cache

import (
	"encoding/json"

	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

// Request is the closed set of cacheable prompt representations.
type Request interface {
	promptText() (string, bool)
}

// TextPrompt is a plain prompt string.
type TextPrompt string

func (p TextPrompt) promptText() (string, bool) {
	return string(p), p != ""
}

// MessageList is an ordered chat transcript. Its cache-relevant form is
// the JSON encoding of the messages, defined here once so every caller
// hashes the same canonical serialization.
type MessageList []models.ChatMessage

func (m MessageList) promptText() (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	data, err := json.Marshal([]models.ChatMessage(m))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Params carries the call parameters that participate in the cache key.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// CallFunc is a model-call function eligible for caching.
type CallFunc func(req Request, p Params) (json.RawMessage, error)

// Wrap returns fn with transparent caching. Requests with no extractable
// prompt representation bypass the cache and call through. A hit returns
// the stored response without invoking fn; a miss invokes fn and stores
// its result. Errors from fn are never cached.
func (c *ResponseCache) Wrap(fn CallFunc) CallFunc {
	return func(req Request, p Params) (json.RawMessage, error) {
		prompt, ok := extractPrompt(req)
		if !ok {
			return fn(req, p)
		}
		if cached, ok := c.Get(prompt, p.Model, p.Temperature, p.MaxTokens); ok {
			return cached, nil
		}
		result, err := fn(req, p)
		if err != nil {
			return nil, err
		}
		c.Set(prompt, p.Model, result, p.Temperature, p.MaxTokens)
		return result, nil
	}
}

func extractPrompt(req Request) (string, bool) {
	if req == nil {
		return "", false
	}
	return req.promptText()
}
