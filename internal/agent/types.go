package agent

import (
	"fmt"
	"time"
)

// Status is the loop's position within an iteration.
type Status int

const (
	Running Status = iota
	AwaitingModel
	Dispatching
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingModel:
		return "awaiting_model"
	case Dispatching:
		return "dispatching"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Reason says why a run reached Done.
type Reason string

const (
	ReasonFinalAnswer       Reason = "final_answer"
	ReasonBudgetExhausted   Reason = "budget_exhausted"
	ReasonProtocolError     Reason = "protocol_error"
	ReasonGenerationFailure Reason = "generation_failure"
	ReasonDispatchFailure   Reason = "dispatch_failure"
)

// ExitCode is the process exit status for a run that ended with r.
func (r Reason) ExitCode() int {
	switch r {
	case ReasonFinalAnswer:
		return 0
	case ReasonBudgetExhausted:
		return 2
	case ReasonProtocolError:
		return 3
	case ReasonGenerationFailure:
		return 4
	case ReasonDispatchFailure:
		return 5
	default:
		return 1
	}
}

// IterationRecord is one entry of the run history: a tool call and what it
// returned, or the error that ended the iteration.
type IterationRecord struct {
	Index     int    `json:"index"`
	Provider  string `json:"provider,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r IterationRecord) Failed() bool {
	return r.Error != ""
}

// String is the text fed back to the model on later turns.
func (r IterationRecord) String() string {
	if r.Failed() {
		return fmt.Sprintf("Error in iteration %d: %s", r.Index, r.Error)
	}
	return fmt.Sprintf("In the %d iteration you called %s.%s with %s parameters, and the function returned %s.",
		r.Index, r.Provider, r.Tool, r.Arguments, r.Result)
}

// LoopState is everything the loop carries between iterations.
type LoopState struct {
	Iteration  int
	LastResult *string
	History    []IterationRecord
	Status     Status
	Reason     Reason
	Answer     string
	Err        error
}

// NewState is the pristine state a run starts from.
func NewState() LoopState {
	return LoopState{Status: Running}
}

func (s LoopState) Terminal() bool {
	return s.Status == Done
}

// Records renders the history for the next turn query.
func (s LoopState) Records() []string {
	out := make([]string, len(s.History))
	for i, r := range s.History {
		out[i] = r.String()
	}
	return out
}

// Config holds the loop's fixed settings.
type Config struct {
	MaxIterations int
	Timeout       time.Duration
	// System is the rendered system prompt.
	System string
}

// Result is the outcome of one run.
type Result struct {
	RunID      string            `json:"run_id"`
	Reason     Reason            `json:"reason"`
	Answer     string            `json:"answer,omitempty"`
	Iterations int               `json:"iterations"`
	History    []IterationRecord `json:"history,omitempty"`
	Err        error             `json:"-"`
}

func (r Result) ExitCode() int {
	return r.Reason.ExitCode()
}
