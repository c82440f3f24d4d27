package agent

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/eriksjaastad/mcp-mail-math/internal/coerce"
	"github.com/eriksjaastad/mcp-mail-math/internal/executor"
	"github.com/eriksjaastad/mcp-mail-math/internal/gateway"
	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/parser"
	"github.com/eriksjaastad/mcp-mail-math/internal/prompt"
)

const (
	DefaultMaxIterations = 6
	DefaultTimeout       = 10 * time.Second
)

var (
	// ErrToolFailed means the provider or its transport rejected a call.
	ErrToolFailed = errors.New("tool call failed")
	// ErrBudgetExhausted means the iteration budget ran out before a final answer.
	ErrBudgetExhausted = errors.New("iteration budget exhausted")
)

// AgentLoop orchestrates the tool-calling loop.
type AgentLoop struct {
	gateway  *gateway.Gateway
	executor *executor.Executor
	parser   *parser.Parser
	cfg      Config

	state LoopState
}

// NewAgentLoop creates a new AgentLoop.
func NewAgentLoop(gw *gateway.Gateway, exec *executor.Executor, p *parser.Parser, cfg Config) *AgentLoop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &AgentLoop{
		gateway:  gw,
		executor: exec,
		parser:   p,
		cfg:      cfg,
		state:    NewState(),
	}
}

// State is the state of the run in progress, or a pristine state between runs.
func (a *AgentLoop) State() LoopState {
	return a.state
}

// Run executes the agent loop for one task until it reaches Done.
func (a *AgentLoop) Run(ctx context.Context, task string) Result {
	runID := uuid.NewString()
	log := logger.With("run_id", runID)
	log.Info("Agent run started", "max_iterations", a.cfg.MaxIterations, "timeout", a.cfg.Timeout.String())

	a.state = NewState()
	defer func() { a.state = NewState() }()

	for !a.state.Terminal() {
		a.state = a.Step(ctx, task, a.state)
	}

	final := a.state
	res := Result{
		RunID:      runID,
		Reason:     final.Reason,
		Answer:     final.Answer,
		Iterations: final.Iteration,
		History:    final.History,
		Err:        final.Err,
	}
	if final.Err != nil {
		log.Warn("Agent run ended", "reason", string(final.Reason), "iterations", final.Iteration, "error", final.Err.Error())
	} else {
		log.Info("Agent run ended", "reason", string(final.Reason), "iterations", final.Iteration, "answer", final.Answer)
	}
	return res
}

// Step performs one iteration. It never mutates state in place: the returned
// LoopState is either the next Running state or a Done state.
func (a *AgentLoop) Step(ctx context.Context, task string, state LoopState) LoopState {
	if state.Terminal() {
		return state
	}
	if state.Iteration >= a.cfg.MaxIterations {
		return done(state, ReasonBudgetExhausted,
			errors.Wrapf(ErrBudgetExhausted, "no final answer after %d iterations", state.Iteration))
	}

	logger.Info("Agent iteration", "iteration", state.Iteration+1)
	state.Status = AwaitingModel
	query := prompt.TurnQuery(task, state.Records())
	text, err := a.gateway.Generate(ctx, prompt.Render(a.cfg.System, query), a.cfg.Timeout)
	if err != nil {
		return done(state, ReasonGenerationFailure, err)
	}
	logger.Debug("LLM response", "text", text)

	inst := a.parser.Parse(text)
	switch inst.Kind {
	case parser.FinalAnswer:
		state.Answer = inst.Answer
		return done(state, ReasonFinalAnswer, nil)
	case parser.Malformed:
		return done(state, ReasonProtocolError, inst.Err())
	}

	state.Status = Dispatching
	record := IterationRecord{Index: state.Iteration + 1, Provider: inst.Provider, Tool: inst.Tool}
	logger.Info("Function call", "provider", inst.Provider, "tool", inst.Tool, "args", inst.Args)

	tool, err := a.executor.Resolve(inst.Provider, inst.Tool)
	if err != nil {
		return failed(state, record, err)
	}
	inv, err := coerce.Coerce(tool, inst.Args)
	if err != nil {
		return failed(state, record, err)
	}
	record.Arguments = inv.String()

	res := a.executor.Execute(ctx, inv)
	if res.Failed() {
		return failed(state, record, errors.Mark(errors.Newf("%s.%s: %s", res.Provider, res.ToolName, res.Error), ErrToolFailed))
	}

	record.Result = res.Result
	result := res.Result
	state.History = append(slices.Clone(state.History), record)
	state.LastResult = &result
	state.Iteration++
	state.Status = Running
	return state
}

func done(state LoopState, reason Reason, err error) LoopState {
	state.Status = Done
	state.Reason = reason
	state.Err = err
	return state
}

// failed records the error as this iteration's history entry and ends the run.
// The error record counts toward the iteration budget, so len(History) equals
// Iteration in every returned state.
func failed(state LoopState, record IterationRecord, err error) LoopState {
	logger.Error("Iteration failed", err, "iteration", record.Index)
	record.Error = err.Error()
	state.History = append(slices.Clone(state.History), record)
	state.Iteration++
	return done(state, ReasonDispatchFailure, err)
}
