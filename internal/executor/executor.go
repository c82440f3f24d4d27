package executor

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eriksjaastad/mcp-mail-math/internal/coerce"
	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

var (
	// ErrUnknownProvider means no live session has the requested provider id.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownTool means the provider resolved but does not declare the tool.
	ErrUnknownTool = errors.New("unknown tool")
)

// Caller is the part of a provider session the executor needs.
type Caller interface {
	ID() string
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// ExecutionResult represents the result of a tool execution.
type ExecutionResult struct {
	Provider string `json:"provider"`
	ToolName string `json:"tool_name"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the provider or the transport rejected the call.
func (r ExecutionResult) Failed() bool {
	return r.Error != ""
}

// Executor routes invocations to provider sessions.
type Executor struct {
	catalogue *registry.Catalogue
	sessions  map[string]Caller
}

// NewExecutor creates a new Executor over the catalogue and live sessions.
func NewExecutor(catalogue *registry.Catalogue, sessions ...Caller) *Executor {
	e := &Executor{
		catalogue: catalogue,
		sessions:  make(map[string]Caller, len(sessions)),
	}
	for _, s := range sessions {
		e.sessions[s.ID()] = s
	}
	return e
}

// Resolve finds the declared tool for a provider id and tool name.
func (e *Executor) Resolve(provider, tool string) (registry.Tool, error) {
	if _, ok := e.sessions[provider]; !ok || !e.catalogue.HasProvider(provider) {
		return registry.Tool{}, errors.Wrapf(ErrUnknownProvider, "%s", provider)
	}
	t, ok := e.catalogue.Lookup(provider, tool)
	if !ok {
		return registry.Tool{}, errors.Wrapf(ErrUnknownTool, "%s has no tool %s", provider, tool)
	}
	return t, nil
}

// Execute runs a single invocation. Remote failures come back as an
// ExecutionResult with Error set, never as a Go error.
func (e *Executor) Execute(ctx context.Context, inv coerce.Invocation) ExecutionResult {
	out := ExecutionResult{Provider: inv.Tool.Provider, ToolName: inv.Tool.Name}

	session, ok := e.sessions[inv.Tool.Provider]
	if !ok {
		out.Error = errors.Wrapf(ErrUnknownProvider, "%s", inv.Tool.Provider).Error()
		return out
	}

	logger.Info("Calling tool", "provider", out.Provider, "tool", out.ToolName, "args", inv.String())
	res, err := session.CallTool(ctx, inv.Tool.Name, inv.Map())
	if err != nil {
		logger.Error("Tool call failed", err, "provider", out.Provider, "tool", out.ToolName)
		out.Error = err.Error()
		return out
	}

	text := Classify(res).Normalize()
	if res.IsError {
		logger.Warn("Tool returned an error", "provider", out.Provider, "tool", out.ToolName, "error", text)
		out.Error = text
		return out
	}
	logger.Debug("Tool result", "provider", out.Provider, "tool", out.ToolName, "result", text)
	out.Result = text
	return out
}
