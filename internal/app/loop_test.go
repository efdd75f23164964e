package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearh/internal/agent"
	"codearh/internal/config"
	appcontext "codearh/internal/context"
	"codearh/internal/router"
)

type loopHarness struct {
	loop     *ExecutionLoop
	statuses []string
	delays   []time.Duration
	opts     []appcontext.Options
	calls    int
}

func newLoopHarness(results ...error) *loopHarness {
	h := &loopHarness{}
	build := func(a agent.Agent, opts appcontext.Options) string {
		h.opts = append(h.opts, opts)
		return "ctx"
	}
	call := func(ctx context.Context, message, contextText string, an router.RequestAnalysis, a agent.Agent) (string, error) {
		i := h.calls
		h.calls++
		if i < len(results) && results[i] != nil {
			return "", results[i]
		}
		return "ok", nil
	}
	h.loop = NewExecutionLoop(config.ExecutionConfig{MaxAttempts: 3, BaseDelay: time.Second}, build, call,
		func(s string) { h.statuses = append(h.statuses, s) })
	h.loop.SetSleeper(func(ctx context.Context, d time.Duration) error {
		h.delays = append(h.delays, d)
		return nil
	})
	return h
}

var overloaded = errors.New("Gemini API error: 503 - model overloaded")

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	h := newLoopHarness()
	out, err := h.loop.Execute(context.Background(), "hi", router.RequestAnalysis{}, agent.Agent{ID: "generator"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{
		"Calling AI... (Attempt 1/3, Strategy: Direct)",
		"✅ AI call successful on attempt 1",
	}, h.statuses)
	assert.Empty(t, h.delays)
	assert.False(t, h.opts[0].Simplify)
}

func TestExecuteRetriesWithBackoff(t *testing.T) {
	h := newLoopHarness(overloaded, overloaded)
	out, err := h.loop.Execute(context.Background(), "hi", router.RequestAnalysis{}, agent.Agent{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, h.calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, h.delays)

	assert.Equal(t, []string{
		"Calling AI... (Attempt 1/3, Strategy: Direct)",
		"⚠️ Model overloaded. Retrying in 1s... (Attempt 2/3)",
		"Calling AI... (Attempt 2/3, Strategy: Retry with Backoff)",
		"⚠️ Model overloaded. Retrying in 2s... (Attempt 3/3)",
		"Calling AI... (Attempt 3/3, Strategy: Simplified Context)",
		"✅ AI call successful on attempt 3",
	}, h.statuses)
	require.Len(t, h.opts, 3)
	assert.True(t, h.opts[2].Simplify)

	st := h.loop.State()
	assert.Equal(t, 3, st.AttemptCount)
	assert.Equal(t, StrategySimplified, st.CurrentStrategy)
	assert.False(t, st.IsRetrying)
	require.Len(t, st.ErrorLog, 2)
	assert.Equal(t, AttemptRecord{Attempt: 1, Strategy: StrategyDirect, Error: overloaded.Error()}, st.ErrorLog[0])
}

func TestExecuteNoRetryAfterFinalAttempt(t *testing.T) {
	h := newLoopHarness(overloaded, overloaded, overloaded)
	_, err := h.loop.Execute(context.Background(), "hi", router.RequestAnalysis{}, agent.Agent{})
	require.Error(t, err)
	assert.Equal(t, 3, h.calls)
	assert.Len(t, h.delays, 2)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.Attempts)
	assert.Len(t, execErr.Log, 3)
	assert.ErrorIs(t, err, overloaded)
	assert.Equal(t, "Error after 3 attempt(s): Gemini API error: 503 - model overloaded", err.Error())
	assert.True(t, h.loop.State().IsRetrying)
}

func TestExecuteStopsOnTerminalError(t *testing.T) {
	bad := errors.New("Claude API error: 401 - invalid key")
	h := newLoopHarness(bad)
	_, err := h.loop.Execute(context.Background(), "hi", router.RequestAnalysis{}, agent.Agent{})
	require.Error(t, err)
	assert.Equal(t, 1, h.calls)
	assert.Empty(t, h.delays)
	assert.Equal(t, "Error after 1 attempt(s): Claude API error: 401 - invalid key", err.Error())
}

func TestExecuteUsesFinalAttemptPastStrategies(t *testing.T) {
	h := newLoopHarness(overloaded, overloaded, overloaded)
	h.loop.state.MaxAttempts = 4
	_, err := h.loop.Execute(context.Background(), "hi", router.RequestAnalysis{}, agent.Agent{})
	require.NoError(t, err)
	assert.Equal(t, StrategyFinal, h.loop.State().CurrentStrategy)
	assert.Contains(t, h.statuses, "Calling AI... (Attempt 4/4, Strategy: Final Attempt)")
}

func TestExecuteCancelledDuringBackoff(t *testing.T) {
	h := newLoopHarness(overloaded, overloaded)
	h.loop.SetSleeper(sleepContext)
	h.loop.baseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.loop.Execute(ctx, "hi", router.RequestAnalysis{}, agent.Agent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.calls)
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, IsRetriable(errors.New("status 503")))
	assert.True(t, IsRetriable(errors.New("UNAVAILABLE")))
	assert.True(t, IsRetriable(errors.New("The model is overloaded")))
	assert.False(t, IsRetriable(errors.New("Overloaded")))
	assert.False(t, IsRetriable(errors.New("unavailable")))
	assert.False(t, IsRetriable(nil))
}

func TestBackoffDoubles(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(time.Second, 1))
	assert.Equal(t, 2*time.Second, Backoff(time.Second, 2))

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("each retry waits twice as long", prop.ForAll(
		func(ms int64, attempt int) bool {
			base := time.Duration(ms) * time.Millisecond
			return Backoff(base, attempt+1) == 2*Backoff(base, attempt)
		},
		gen.Int64Range(1, 5000),
		gen.IntRange(1, 10),
	))
	properties.TestingRun(t)
}
