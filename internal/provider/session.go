// Package provider holds live MCP sessions to tool providers.
package provider

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

const (
	ClientName    = "mcp-mail-math"
	ClientVersion = "1.0.0"
)

// Spec describes a provider process reached over stdio.
type Spec struct {
	ID      string
	Command string
	Args    []string
	Env     []string
}

// Session is an initialized connection to one tool provider.
type Session struct {
	id     string
	client *client.Client
	server mcp.Implementation
}

// Dial launches the provider process and performs the MCP handshake.
func Dial(ctx context.Context, spec Spec) (*Session, error) {
	if spec.Command == "" {
		return nil, errors.Newf("provider %s: empty command", spec.ID)
	}
	c, err := client.NewStdioMCPClient(spec.Command, spec.Env, spec.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s: start %s", spec.ID, spec.Command)
	}
	return initialize(ctx, spec.ID, c)
}

// NewInProcess connects to an MCP server living in the same process.
func NewInProcess(ctx context.Context, id string, srv *server.MCPServer) (*Session, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s: in-process client", id)
	}
	if err := c.Start(ctx); err != nil {
		return nil, errors.Wrapf(err, "provider %s: start", id)
	}
	return initialize(ctx, id, c)
}

func initialize(ctx context.Context, id string, c *client.Client) (*Session, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}

	res, err := c.Initialize(ctx, req)
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "provider %s: initialize", id)
	}
	logger.Info("Provider connected", "provider", id, "server", res.ServerInfo.Name, "version", res.ServerInfo.Version)
	return &Session{id: id, client: c, server: res.ServerInfo}, nil
}

// ID is the provider id used in FUNCTION_CALL lines.
func (s *Session) ID() string {
	return s.id
}

// ServerInfo reports what the provider announced during the handshake.
func (s *Session) ServerInfo() mcp.Implementation {
	return s.server
}

func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s: list tools", s.id)
	}
	return res.Tools, nil
}

func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s: call %s", s.id, name)
	}
	return res, nil
}

func (s *Session) Close() error {
	if err := s.client.Close(); err != nil {
		return errors.Wrapf(err, "provider %s: close", s.id)
	}
	return nil
}
