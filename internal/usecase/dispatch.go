package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ensemble/internal/domain"
)

// defaultMaxConcurrent bounds fan-out batches when the engine options leave
// it unset.
const defaultMaxConcurrent = 5

// callTask is one unit of fan-out work, typically "call model X with prompt Y".
type callTask func(ctx context.Context) (*domain.ProviderResponse, error)

// dispatcher executes batches of model-call tasks with a bounded number in
// flight. Results preserve submission order regardless of completion order.
type dispatcher struct {
	logger    *slog.Logger
	semaphore chan struct{}
}

func newDispatcher(limit int, logger *slog.Logger) *dispatcher {
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	return &dispatcher{
		logger:    logger,
		semaphore: make(chan struct{}, limit),
	}
}

// runCalls executes all tasks and returns their results indexed by
// submission order. The batch is all-or-nothing: any task error fails the
// whole call with no partial results. In-flight siblings are not canceled;
// they run to completion and their results are discarded.
func (d *dispatcher) runCalls(ctx context.Context, tasks []callTask) ([]*domain.ProviderResponse, error) {
	results := make([]*domain.ProviderResponse, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t callTask) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}

			select {
			case d.semaphore <- struct{}{}:
				defer func() { <-d.semaphore }()
			case <-ctx.Done():
				errs[idx] = fmt.Errorf("waiting for slot: %w", ctx.Err())
				return
			}

			results[idx], errs[idx] = t(ctx)
		}(i, task)
	}

	wg.Wait()

	var failures []error
	for i, err := range errs {
		if err != nil {
			failures = append(failures, fmt.Errorf("task %d: %w", i, err))
		}
	}
	if len(failures) > 0 {
		d.logger.Debug("batch failed", "tasks", len(tasks), "failures", len(failures))
		return nil, fmt.Errorf("%d/%d tasks failed: %w", len(failures), len(tasks), errors.Join(failures...))
	}

	return results, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
