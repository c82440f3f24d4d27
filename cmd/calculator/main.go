package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/tools"
)

func main() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	s := server.NewMCPServer(
		"Calculator",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)
	tools.RegisterCalculatorTools(s)

	logger.Info("Starting calculator MCP server")
	// MCP uses stdout, so logs must go to stderr
	if err := server.ServeStdio(s, server.WithErrorLogger(log.New(os.Stderr, "calculator: ", log.LstdFlags))); err != nil {
		logger.Error("Server error", err)
		os.Exit(1)
	}
}
