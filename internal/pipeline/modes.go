package pipeline

import (
	"context"
	"strings"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
	"github.com/ajitpratap0/borealis/pkg/workerpool"
)

// NormalizeMode maps user-facing mode spellings onto the canonical
// names. The numeric aliases 1, 2, and 3 match the order the modes
// are listed in the CLI help.
func NormalizeMode(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case config.ModeSequential, "1":
		return config.ModeSequential, nil
	case config.ModePool, "2":
		return config.ModePool, nil
	case config.ModeStream, "3":
		return config.ModeStream, nil
	default:
		return "", errors.New(errors.ErrorTypeValidation,
			stringpool.Sprintf("unknown pipeline mode %q, want sequential, pool, or stream", raw))
	}
}

// Run dispatches lines to the driver named by mode. Mode aliases are
// accepted, see NormalizeMode.
func (c *Coordinator) Run(ctx context.Context, mode string, lines []string) (Summary, error) {
	normalized, err := NormalizeMode(mode)
	if err != nil {
		return c.Summary(), err
	}
	switch normalized {
	case config.ModePool:
		return c.RunPool(ctx, lines)
	case config.ModeStream:
		return c.RunStream(ctx, lines)
	default:
		return c.RunSequential(ctx, lines)
	}
}

// RunSequential processes every line in order on the calling
// goroutine.
func (c *Coordinator) RunSequential(ctx context.Context, lines []string) (Summary, error) {
	return c.run(ctx, config.ModeSequential, lines, func(batch []string) error {
		for _, line := range batch {
			c.ProcessRecord(line)
		}
		return nil
	})
}

// RunPool fans the lines across the worker pool and waits for the
// whole batch to finish.
func (c *Coordinator) RunPool(ctx context.Context, lines []string) (Summary, error) {
	return c.run(ctx, config.ModePool, lines, func(batch []string) error {
		return workerpool.ProcessBatch(c.pool, batch, func(line string) error {
			c.ProcessRecord(line)
			return nil
		})
	})
}

// RunStream produces the lines into the bounded queue whose consumer
// goroutine processes them. The queue is single-use, so a coordinator
// supports at most one streaming run.
func (c *Coordinator) RunStream(ctx context.Context, lines []string) (Summary, error) {
	return c.run(ctx, config.ModeStream, lines, func(batch []string) error {
		if err := c.queue.Start(c.ProcessRecord); err != nil {
			return err
		}
		for _, line := range batch {
			if err := c.queue.Produce(line); err != nil {
				return err
			}
		}
		return c.queue.Stop()
	})
}
