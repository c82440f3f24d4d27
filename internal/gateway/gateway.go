// Package gateway bounds a single text-generation call by a wall-clock timeout.
package gateway

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

var (
	// ErrGenerationTimeout means no text arrived before the timeout.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrGenerationError wraps any other backend failure.
	ErrGenerationError = errors.New("generation failed")
)

// Generator is a blocking text-generation backend: prompt in, text out.
// It must honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Gateway runs each generation on its own goroutine and gives up on it at the
// deadline, cancelling its context. There is exactly one attempt per call.
type Gateway struct {
	gen Generator
}

func New(gen Generator) *Gateway {
	return &Gateway{gen: gen}
}

type generation struct {
	text string
	err  error
}

// Generate returns the generated text, ErrGenerationTimeout, or ErrGenerationError.
func (g *Gateway) Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Starting LLM generation", "timeout", timeout.String())
	started := time.Now()

	done := make(chan generation, 1)
	go func() {
		text, err := g.gen.Generate(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return "", errors.Wrapf(ErrGenerationTimeout, "no response within %s", timeout)
			}
			return "", errors.Mark(errors.Wrap(res.err, "generate"), ErrGenerationError)
		}
		logger.Debug("LLM generation completed", "elapsed", time.Since(started).String())
		return res.text, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn("LLM generation timed out", "timeout", timeout.String())
			return "", errors.Wrapf(ErrGenerationTimeout, "no response within %s", timeout)
		}
		return "", errors.Mark(errors.Wrap(ctx.Err(), "generate"), ErrGenerationError)
	}
}
