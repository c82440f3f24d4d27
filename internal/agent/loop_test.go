package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eriksjaastad/mcp-mail-math/internal/coerce"
	"github.com/eriksjaastad/mcp-mail-math/internal/executor"
	"github.com/eriksjaastad/mcp-mail-math/internal/gateway"
	"github.com/eriksjaastad/mcp-mail-math/internal/parser"
	"github.com/eriksjaastad/mcp-mail-math/internal/prompt"
	"github.com/eriksjaastad/mcp-mail-math/internal/provider"
	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
	"github.com/eriksjaastad/mcp-mail-math/internal/tools"
)

// scripted replies with one canned response per call and records every prompt.
type scripted struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (s *scripted) Generate(ctx context.Context, p string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if len(s.replies) == 0 {
		return "FINAL_ANSWER: out of script", nil
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next, nil
}

func (s *scripted) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newLoop(t *testing.T, gen gateway.Generator, cfg Config) *AgentLoop {
	t.Helper()
	ctx := context.Background()

	s := server.NewMCPServer("Calculator", "1.0.0", server.WithToolCapabilities(false))
	tools.RegisterCalculatorTools(s)
	set, err := provider.Open(ctx, provider.InProcess("Calculator", s))
	require.NoError(t, err)
	t.Cleanup(func() { _ = set.Close() })

	cat, err := registry.Build(ctx, set.Listers()...)
	require.NoError(t, err)

	callers := make([]executor.Caller, 0)
	for _, sess := range set.Sessions() {
		callers = append(callers, sess)
	}
	if cfg.System == "" {
		cfg.System = prompt.System(cat, prompt.Options{Recipient: "me@example.com"})
	}
	return NewAgentLoop(gateway.New(gen), executor.NewExecutor(cat, callers...), parser.NewParser(), cfg)
}

func TestFinalAnswerOnFirstIteration(t *testing.T) {
	gen := &scripted{replies: []string{"FINAL_ANSWER: 42"}}
	loop := newLoop(t, gen, Config{MaxIterations: 3, Timeout: time.Second})

	res := loop.Run(context.Background(), "what is the answer?")
	assert.Equal(t, ReasonFinalAnswer, res.Reason)
	assert.Equal(t, "42", res.Answer)
	assert.Equal(t, 0, res.Iterations)
	assert.Empty(t, res.History)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode())
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, gen.calls())
}

func TestToolCallsThenFinalAnswer(t *testing.T) {
	gen := &scripted{replies: []string{
		"FUNCTION_CALL: Calculator|strings_to_chars_to_int|INDIA",
		"Let me think.\nFUNCTION_CALL: Calculator|int_list_to_exponential_sum|[0,0]\nFINAL_ANSWER: too early",
		"FINAL_ANSWER: [2]",
	}}
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

	res := loop.Run(context.Background(), "task")
	require.Equal(t, ReasonFinalAnswer, res.Reason, "err: %v", res.Err)
	assert.Equal(t, "[2]", res.Answer)
	assert.Equal(t, 2, res.Iterations)
	require.Len(t, res.History, 2)

	assert.Equal(t,
		`In the 1 iteration you called Calculator.strings_to_chars_to_int with {string: "INDIA"} parameters, and the function returned [73, 78, 68, 73, 65].`,
		res.History[0].String())
	assert.Equal(t,
		"In the 2 iteration you called Calculator.int_list_to_exponential_sum with {int_list: [0, 0]} parameters, and the function returned [2].",
		res.History[1].String())

	require.Len(t, gen.prompts, 3)
	assert.True(t, strings.HasSuffix(gen.prompts[0], "Query: task"))
	assert.Contains(t, gen.prompts[2], res.History[0].String()+" "+res.History[1].String())
	assert.True(t, strings.HasSuffix(gen.prompts[2], prompt.CONTINUATION))

	// state is reset after the run
	assert.Equal(t, NewState(), loop.State())
}

func TestGenerationTimeoutKeepsHistory(t *testing.T) {
	calls := 0
	gen := gateway.GeneratorFunc(func(ctx context.Context, p string) (string, error) {
		calls++
		if calls == 1 {
			return "FUNCTION_CALL: Calculator|add|5|3", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: 50 * time.Millisecond})

	res := loop.Run(context.Background(), "add things")
	assert.Equal(t, ReasonGenerationFailure, res.Reason)
	assert.True(t, errors.Is(res.Err, gateway.ErrGenerationTimeout))
	assert.Equal(t, 1, res.Iterations)
	require.Len(t, res.History, 1)
	assert.Equal(t, "[8]", res.History[0].Result)
	assert.Equal(t, 4, res.ExitCode())
}

func TestMalformedOutputIsProtocolError(t *testing.T) {
	gen := &scripted{replies: []string{"I think the answer is 42"}}
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

	res := loop.Run(context.Background(), "task")
	assert.Equal(t, ReasonProtocolError, res.Reason)
	assert.True(t, errors.Is(res.Err, parser.ErrProtocolViolation))
	assert.Equal(t, 3, res.ExitCode())
}

func TestBudgetExhausted(t *testing.T) {
	gen := &scripted{replies: []string{
		"FUNCTION_CALL: Calculator|add|1|1",
		"FUNCTION_CALL: Calculator|add|2|2",
		"FUNCTION_CALL: Calculator|add|3|3",
	}}
	loop := newLoop(t, gen, Config{MaxIterations: 2, Timeout: time.Second})

	res := loop.Run(context.Background(), "loop forever")
	assert.Equal(t, ReasonBudgetExhausted, res.Reason)
	assert.True(t, errors.Is(res.Err, ErrBudgetExhausted))
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, res.History, 2)
	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, 2, res.ExitCode())
}

func TestDispatchFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		kind  error
	}{
		{"unknown provider", "FUNCTION_CALL: Weather|add|1|2", executor.ErrUnknownProvider},
		{"unknown tool", "FUNCTION_CALL: Calculator|add_three|1|2|3", executor.ErrUnknownTool},
		{"arity", "FUNCTION_CALL: Calculator|add|1", coerce.ErrArityMismatch},
		{"type", "FUNCTION_CALL: Calculator|add|one|2", coerce.ErrTypeCoercion},
		{"remote", "FUNCTION_CALL: Calculator|divide|1|0", ErrToolFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scripted{replies: []string{tt.reply, "FINAL_ANSWER: unreachable"}}
			loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

			res := loop.Run(context.Background(), "task")
			assert.Equal(t, ReasonDispatchFailure, res.Reason)
			assert.True(t, errors.Is(res.Err, tt.kind), "got %v", res.Err)
			assert.Equal(t, 1, res.Iterations)
			require.Len(t, res.History, 1)
			assert.True(t, res.History[0].Failed())
			assert.True(t, strings.HasPrefix(res.History[0].String(), "Error in iteration 1: "))
			assert.Equal(t, 1, gen.calls())
			assert.Equal(t, 5, res.ExitCode())
		})
	}
}

func TestDispatchFailureOnLastIterationBeatsBudget(t *testing.T) {
	gen := &scripted{replies: []string{
		"FUNCTION_CALL: Calculator|add|1|1",
		"FUNCTION_CALL: Calculator|divide|1|0",
	}}
	loop := newLoop(t, gen, Config{MaxIterations: 2, Timeout: time.Second})

	res := loop.Run(context.Background(), "task")
	assert.Equal(t, ReasonDispatchFailure, res.Reason)
	assert.Equal(t, 2, res.Iterations)
}

func TestErrorRecordCountsTowardBudget(t *testing.T) {
	gen := &scripted{replies: []string{
		"FUNCTION_CALL: Calculator|add|1|1",
		"FUNCTION_CALL: Calculator|add|1",
	}}
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

	state := loop.Step(context.Background(), "task", NewState())
	assert.Equal(t, Running, state.Status)
	assert.Len(t, state.History, state.Iteration)

	state = loop.Step(context.Background(), "task", state)
	assert.Equal(t, Done, state.Status)
	assert.Equal(t, ReasonDispatchFailure, state.Reason)
	assert.Equal(t, 2, state.Iteration)
	assert.Len(t, state.History, state.Iteration)
	assert.True(t, state.History[1].Failed())
}

func TestStepDoesNotMutateInput(t *testing.T) {
	gen := &scripted{replies: []string{"FUNCTION_CALL: Calculator|add|5|3"}}
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

	start := NewState()
	start.History = make([]IterationRecord, 0, 4)
	next := loop.Step(context.Background(), "task", start)

	assert.Equal(t, Running, next.Status)
	assert.Equal(t, 1, next.Iteration)
	require.NotNil(t, next.LastResult)
	assert.Equal(t, "[8]", *next.LastResult)
	assert.Equal(t, `{a: 5, b: 3}`, next.History[0].Arguments)

	assert.Equal(t, 0, start.Iteration)
	assert.Empty(t, start.History)
	assert.Empty(t, start.History[:cap(start.History)][0].Tool)
}

func TestStepOnDoneIsNoop(t *testing.T) {
	gen := &scripted{}
	loop := newLoop(t, gen, Config{MaxIterations: 6, Timeout: time.Second})

	final := LoopState{Status: Done, Reason: ReasonFinalAnswer}
	assert.Equal(t, final, loop.Step(context.Background(), "task", final))
	assert.Equal(t, 0, gen.calls())
}

func TestIterationRecordString(t *testing.T) {
	ok := IterationRecord{Index: 3, Provider: "Gmail", Tool: "send_email", Arguments: `{recipient_id: "a@b.c"}`, Result: `[{"status":"success"}]`}
	assert.Equal(t,
		`In the 3 iteration you called Gmail.send_email with {recipient_id: "a@b.c"} parameters, and the function returned [{"status":"success"}].`,
		ok.String())

	bad := IterationRecord{Index: 2, Error: "boom"}
	assert.Equal(t, "Error in iteration 2: boom", bad.String())
}
