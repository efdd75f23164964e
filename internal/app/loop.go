package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"codearh/internal/agent"
	"codearh/internal/config"
	appcontext "codearh/internal/context"
	"codearh/internal/logging"
	"codearh/internal/router"
)

// Execution strategies, one per attempt.
const (
	StrategyDirect     = "Direct"
	StrategyRetry      = "Retry with Backoff"
	StrategySimplified = "Simplified Context"
	StrategyFinal      = "Final Attempt"
)

// DefaultStrategies is the per-attempt strategy list.
var DefaultStrategies = []string{StrategyDirect, StrategyRetry, StrategySimplified}

// AttemptRecord is one entry of the loop's error log.
type AttemptRecord struct {
	Attempt  int    `json:"attempt"`
	Strategy string `json:"strategy"`
	Error    string `json:"error"`
}

// LoopState is the observable state of the execution loop. It is reset at
// the start of every request.
type LoopState struct {
	AttemptCount    int             `json:"attemptCount"`
	MaxAttempts     int             `json:"maxAttempts"`
	Strategies      []string        `json:"strategies"`
	CurrentStrategy string          `json:"currentStrategy"`
	ErrorLog        []AttemptRecord `json:"errorLog"`
	IsRetrying      bool            `json:"isRetrying"`
}

// ContextFunc renders the prompt context for an attempt.
type ContextFunc func(a agent.Agent, opts appcontext.Options) string

// CallFunc performs one model call.
type CallFunc func(ctx context.Context, message, contextText string, an router.RequestAnalysis, a agent.Agent) (string, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ExecutionLoop runs a model call through the strategy list, retrying
// overloaded backends with exponential backoff.
type ExecutionLoop struct {
	mu    sync.RWMutex
	state LoopState

	baseDelay time.Duration
	build     ContextFunc
	call      CallFunc
	status    func(string)
	sleep     SleepFunc
}

// NewExecutionLoop creates a loop. status may be nil.
func NewExecutionLoop(cfg config.ExecutionConfig, build ContextFunc, call CallFunc, status func(string)) *ExecutionLoop {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = config.DefaultMaxAttempts
	}
	return &ExecutionLoop{
		state: LoopState{
			MaxAttempts: maxAttempts,
			Strategies:  append([]string(nil), DefaultStrategies...),
		},
		baseDelay: cfg.BaseDelay,
		build:     build,
		call:      call,
		status:    status,
		sleep:     sleepContext,
	}
}

// SetSleeper replaces the backoff wait; tests use it to skip real delays.
func (l *ExecutionLoop) SetSleeper(fn SleepFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sleep = fn
}

// State returns a copy of the loop state.
func (l *ExecutionLoop) State() LoopState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.state
	s.Strategies = append([]string(nil), l.state.Strategies...)
	s.ErrorLog = append([]AttemptRecord(nil), l.state.ErrorLog...)
	return s
}

// Execute calls the model until it succeeds, the error is not retriable
// or the attempts run out. The returned error is an *ExecutionError.
func (l *ExecutionLoop) Execute(ctx context.Context, message string, an router.RequestAnalysis, a agent.Agent) (string, error) {
	l.mu.Lock()
	l.state.AttemptCount = 0
	l.state.CurrentStrategy = ""
	l.state.ErrorLog = nil
	l.state.IsRetrying = false
	maxAttempts := l.state.MaxAttempts
	sleep := l.sleep
	l.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		strategy := l.begin(attempt)
		l.report(fmt.Sprintf("Calling AI... (Attempt %d/%d, Strategy: %s)", attempt, maxAttempts, strategy))

		simplify := strategy == StrategySimplified
		if simplify {
			logging.Debug("using simplified context", "attempt", attempt)
		}
		contextText := l.build(a, appcontext.Options{Simplify: simplify})

		response, err := l.call(ctx, message, contextText, an, a)
		if err == nil {
			l.mu.Lock()
			l.state.IsRetrying = false
			l.mu.Unlock()
			l.report(fmt.Sprintf("✅ AI call successful on attempt %d", attempt))
			return response, nil
		}

		lastErr = err
		logging.Warn("model attempt failed", "attempt", attempt, "strategy", strategy, "agent", a.ID, "error", err)
		l.mu.Lock()
		l.state.ErrorLog = append(l.state.ErrorLog, AttemptRecord{Attempt: attempt, Strategy: strategy, Error: err.Error()})
		l.mu.Unlock()

		if !IsRetriable(err) || attempt >= maxAttempts {
			break
		}

		l.mu.Lock()
		l.state.IsRetrying = true
		l.mu.Unlock()
		delay := Backoff(l.baseDelay, attempt)
		l.report(fmt.Sprintf("⚠️ Model overloaded. Retrying in %ss... (Attempt %d/%d)",
			strconv.FormatFloat(delay.Seconds(), 'f', -1, 64), attempt+1, maxAttempts))
		if err := sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	st := l.State()
	return "", &ExecutionError{Attempts: st.AttemptCount, Log: st.ErrorLog, Err: lastErr}
}

func (l *ExecutionLoop) begin(attempt int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.AttemptCount = attempt
	strategy := StrategyFinal
	if attempt <= len(l.state.Strategies) {
		strategy = l.state.Strategies[attempt-1]
	}
	l.state.CurrentStrategy = strategy
	return strategy
}

func (l *ExecutionLoop) report(status string) {
	if l.status != nil {
		l.status(status)
	}
}

// IsRetriable reports whether err looks like an overloaded backend.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(msg, "overloaded")
}

// Backoff returns the wait after a failed attempt: base·2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
