package models

import "time"

// UsageEntry is one immutable record of tokens consumed by a model call.
// Entries are appended to the ledger in chronological order and never
// mutated or individually deleted.
type UsageEntry struct {
	Tokens    int       `json:"tokens"`
	Model     string    `json:"model"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageStats aggregates ledger contents for reporting. Budget fields are
// zero when the corresponding ceiling is unset.
type UsageStats struct {
	TotalTokens  int            `json:"total_tokens"`
	DailyTokens  int            `json:"daily_tokens"`
	HourlyTokens int            `json:"hourly_tokens"`
	DailyBudget  int            `json:"daily_budget,omitempty"`
	HourlyBudget int            `json:"hourly_budget,omitempty"`
	TotalBudget  int            `json:"total_budget,omitempty"`
	ModelUsage   map[string]int `json:"model_usage"`
}
