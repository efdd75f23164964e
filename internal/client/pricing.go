package client

import (
	"sort"
	"sync"
	"time"
)

// Pricing is the dollar cost per 1k tokens.
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// approximate list prices
var modelPricing = map[string]Pricing{
	"gemini-1.5-flash":         {Input: 0.000075, Output: 0.00030},
	"gemini-2.5-flash":         {Input: 0.000075, Output: 0.00030},
	"gemini-2.5-pro":           {Input: 0.00125, Output: 0.005},
	"claude-opus-4-20250514":   {Input: 0.015, Output: 0.075},
	"claude-sonnet-4-20250514": {Input: 0.003, Output: 0.015},
	"llama-3.1-8b-instant":     {Input: 0.00005, Output: 0.00008},
	"llama-3.3-70b-versatile":  {Input: 0.00059, Output: 0.00079},
	"openai/gpt-oss-20b":       {Input: 0.0001, Output: 0.0001},
	"openai/gpt-oss-120b":      {Input: 0.00015, Output: 0.00015},
	"mixtral-8x7b-32768":       {Input: 0.00024, Output: 0.00024},
	"llama3-8b-8192":           {Input: 0.00005, Output: 0.00008},
	"llama3-70b-8192":          {Input: 0.00059, Output: 0.00079},
	"gemma2-9b-it":             {Input: 0.0002, Output: 0.0002},
}

// PricingFor returns the price of model. Unlisted models, including local
// Ollama models, are free.
func PricingFor(model string) (Pricing, bool) {
	p, ok := modelPricing[model]
	return p, ok
}

// KnownModels lists the priced models in name order.
func KnownModels() []string {
	out := make([]string, 0, len(modelPricing))
	for m := range modelPricing {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Usage is the estimated usage of one call.
type Usage struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	Cost         float64   `json:"cost"`
}

// ModelCost accumulates usage of one model.
type ModelCost struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// CostSummary is a snapshot of the session's spending.
type CostSummary struct {
	SessionStart time.Time            `json:"sessionStart"`
	Total        float64              `json:"total"`
	Models       map[string]ModelCost `json:"modelBreakdown"`
	Calls        int                  `json:"calls"`
}

// historySize bounds the per-call usage history.
const historySize = 100

// CostTracker accumulates estimated token costs for the session.
type CostTracker struct {
	mu      sync.Mutex
	start   time.Time
	total   float64
	models  map[string]ModelCost
	history []Usage
	now     func() time.Time
}

// NewCostTracker starts a session.
func NewCostTracker() *CostTracker {
	return &CostTracker{
		start:  time.Now(),
		models: make(map[string]ModelCost),
		now:    time.Now,
	}
}

// Record estimates and adds the cost of one call.
func (t *CostTracker) Record(model, prompt, response string) Usage {
	u := Usage{
		Model:        model,
		InputTokens:  EstimateTokens(prompt),
		OutputTokens: EstimateTokens(response),
	}
	if p, ok := PricingFor(model); ok {
		u.Cost = float64(u.InputTokens)/1000*p.Input + float64(u.OutputTokens)/1000*p.Output
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u.Timestamp = t.now()
	t.total += u.Cost
	mc := t.models[model]
	mc.Calls++
	mc.InputTokens += u.InputTokens
	mc.OutputTokens += u.OutputTokens
	mc.Cost += u.Cost
	t.models[model] = mc

	t.history = append(t.history, u)
	if len(t.history) > historySize {
		t.history = t.history[len(t.history)-historySize:]
	}
	return u
}

// Summary returns the session totals.
func (t *CostTracker) Summary() CostSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := CostSummary{
		SessionStart: t.start,
		Total:        t.total,
		Models:       make(map[string]ModelCost, len(t.models)),
	}
	for m, c := range t.models {
		s.Models[m] = c
		s.Calls += c.Calls
	}
	return s
}

// History returns the most recent calls, oldest first.
func (t *CostTracker) History() []Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Usage(nil), t.history...)
}

// Reset starts a new session.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = t.now()
	t.total = 0
	t.models = make(map[string]ModelCost)
	t.history = nil
}
