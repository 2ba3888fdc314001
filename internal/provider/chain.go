package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nightapi/nightapi/internal/metrics"
)

// Step is one attempt in a fallback chain.
type Step[T any] struct {
	Name string
	Call func(ctx context.Context) (T, error)
}

// Chain tries its steps in order and returns the first success.
type Chain[T any] struct {
	name    string
	steps   []Step[T]
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewChain builds a chain. Steps with a nil Call are dropped, so optional
// upstreams can be listed unconditionally.
func NewChain[T any](name string, recorder metrics.Recorder, logger *slog.Logger, steps ...Step[T]) *Chain[T] {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	kept := make([]Step[T], 0, len(steps))
	for _, s := range steps {
		if s.Call != nil {
			kept = append(kept, s)
		}
	}
	return &Chain[T]{
		name:    name,
		steps:   kept,
		metrics: recorder,
		logger:  logger.With("component", "chain", "chain", name),
	}
}

// Run returns the first successful step's result and name. When all steps
// fail the error matches ErrExhausted and wraps every step error.
func (c *Chain[T]) Run(ctx context.Context) (T, string, error) {
	var zero T
	errs := make([]error, 0, len(c.steps))

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		result, err := step.Call(ctx)
		if err == nil {
			return result, step.Name, nil
		}
		c.logger.Info("fallback step failed",
			slog.String("step", step.Name),
			slog.String("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
	}

	c.metrics.IncFallbackExhausted(c.name)
	return zero, "", fmt.Errorf("%s: %w: %w", c.name, ErrExhausted, errors.Join(errs...))
}
