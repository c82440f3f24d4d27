package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/eriksjaastad/mcp-mail-math/internal/credentials"
	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/mail"
	"github.com/eriksjaastad/mcp-mail-math/internal/tools"
)

type options struct {
	credsFilePath string
	tokenPath     string
}

func main() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("Gmail server failed", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "mcp-gmail",
		Short:         "Gmail MCP server over stdio",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.credsFilePath, "creds-file-path", "", "path to credentials.json")
	cmd.PersistentFlags().StringVar(&opts.tokenPath, "token-path", "", "path to token.json")
	_ = cmd.MarkPersistentFlagRequired("creds-file-path")
	_ = cmd.MarkPersistentFlagRequired("token-path")

	cmd.AddCommand(&cobra.Command{
		Use:   "authorize",
		Short: "Run the OAuth consent flow once and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credentials.NewStore(opts.credsFilePath, opts.tokenPath)
			_, err := store.Authorize(cmd.Context(), func(url string) error {
				fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in a browser to grant access:\n\n%s\n\n", url)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Token saved to %s\n", opts.tokenPath)
			return nil
		},
	})
	return cmd
}

func serve(ctx context.Context, opts options) error {
	store := credentials.NewStore(opts.credsFilePath, opts.tokenPath)
	ts, err := store.TokenSource(ctx)
	if errors.Is(err, credentials.ErrNoToken) {
		return errors.Wrap(err, "run `mcp-gmail authorize` first")
	}
	if err != nil {
		return err
	}

	box, err := mail.NewGmail(ctx, option.WithTokenSource(ts))
	if err != nil {
		return err
	}

	s := server.NewMCPServer(
		"Gmail",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)
	tools.RegisterGmailTools(s, box)

	logger.Info("Starting Gmail MCP server", "address", box.Address())
	return server.ServeStdio(s, server.WithErrorLogger(log.New(os.Stderr, "gmail: ", log.LstdFlags)))
}
