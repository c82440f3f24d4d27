package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/eriksjaastad/mcp-mail-math/internal/agent"
	"github.com/eriksjaastad/mcp-mail-math/internal/config"
	"github.com/eriksjaastad/mcp-mail-math/internal/executor"
	"github.com/eriksjaastad/mcp-mail-math/internal/gateway"
	"github.com/eriksjaastad/mcp-mail-math/internal/gemini"
	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/ollama"
	"github.com/eriksjaastad/mcp-mail-math/internal/parser"
	"github.com/eriksjaastad/mcp-mail-math/internal/prompt"
	"github.com/eriksjaastad/mcp-mail-math/internal/provider"
	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

const (
	calculatorID = "Calculator"
	gmailID      = "Gmail"
)

type options struct {
	credsFilePath string
	tokenPath     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	cmd := newRootCmd(&exitCode)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("Agent setup failed", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
	}
	stop()
	os.Exit(exitCode)
}

func newRootCmd(exitCode *int) *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "mcp-agent [query...]",
		Short: "Solve a task with calculator and mail tools",
		Long: "Runs one agent loop: the model calls calculator and mail tools over MCP until it\n" +
			"gives a final answer. Without a query the built-in default query is used.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				task = prompt.DEFAULT_QUERY
			}
			res, err := run(cmd.Context(), opts, task)
			if err != nil {
				return err
			}
			if res.Reason == agent.ReasonFinalAnswer {
				fmt.Fprintf(cmd.OutOrStdout(), "FINAL_ANSWER: %s\n", res.Answer)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "run ended: %s: %v\n", res.Reason, res.Err)
			}
			*exitCode = res.ExitCode()
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.credsFilePath, "creds-file-path", "", "path to the OAuth client secret (credentials.json) for the mail provider")
	cmd.Flags().StringVar(&opts.tokenPath, "token-path", "", "path to the stored OAuth token (token.json) for the mail provider")
	return cmd
}

func run(ctx context.Context, opts options, task string) (agent.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return agent.Result{}, err
	}
	logger.SetLevel(cfg.LogLevel)

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return agent.Result{}, err
	}

	calc, err := provider.ParseSpec(calculatorID, cfg.CalculatorCmd)
	if err != nil {
		return agent.Result{}, err
	}
	var gmailArgs []string
	if opts.credsFilePath != "" {
		gmailArgs = append(gmailArgs, "--creds-file-path", opts.credsFilePath)
	}
	if opts.tokenPath != "" {
		gmailArgs = append(gmailArgs, "--token-path", opts.tokenPath)
	}
	mailbox, err := provider.ParseSpec(gmailID, cfg.GmailCmd, gmailArgs...)
	if err != nil {
		return agent.Result{}, err
	}

	sessions, err := provider.Open(ctx, provider.Stdio(calc), provider.Stdio(mailbox))
	if err != nil {
		return agent.Result{}, err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("Closing providers", "error", err.Error())
		}
	}()

	catalogue, err := registry.Build(ctx, sessions.Listers()...)
	if err != nil {
		return agent.Result{}, err
	}
	logger.Info("Tools registered", "providers", catalogue.Providers(), "tools", catalogue.Len())

	callers := make([]executor.Caller, 0, len(sessions.Sessions()))
	for _, s := range sessions.Sessions() {
		callers = append(callers, s)
	}

	loop := agent.NewAgentLoop(
		gateway.New(gen),
		executor.NewExecutor(catalogue, callers...),
		parser.NewParser(),
		agent.Config{
			MaxIterations: cfg.MaxIterations,
			Timeout:       cfg.LLMTimeout,
			System:        prompt.System(catalogue, prompt.Options{Recipient: cfg.EmailID}),
		},
	)
	return loop.Run(ctx, task), nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (gateway.Generator, error) {
	switch cfg.LLMBackend {
	case config.BackendGemini:
		logger.Info("Using Gemini", "model", cfg.GeminiModel)
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendOllama:
		logger.Info("Using Ollama", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollama.NewClient(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		return nil, errors.Newf("unsupported LLM backend %q", cfg.LLMBackend)
	}
}
