// Package pipeline chains the steps of a hub rebuild and stops at the first
// one that fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStepFailed wraps the error of the step that stopped the pipeline.
var ErrStepFailed = errors.New("pipeline step failed")

// Step is one named unit of work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs Steps in order.
type Pipeline struct {
	ID     string
	Steps  []Step
	Logger *zap.Logger
}

func New(logger *zap.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Pipeline{ID: id, Steps: steps, Logger: logger.With(zap.String("run_id", id))}
}

// StepResult records how one step went.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Run executes every step until one fails or ctx is cancelled. Steps after a
// failure are not started.
func (p *Pipeline) Run(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(p.Steps))
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Name, err)
		}
		log := p.Logger.With(zap.String("step", step.Name), zap.Int("index", i+1), zap.Int("of", len(p.Steps)))
		log.Info("step started")

		start := time.Now()
		err := step.Run(ctx)
		res := StepResult{Name: step.Name, Duration: time.Since(start), Err: err}
		results = append(results, res)

		if err != nil {
			log.Error("step failed", zap.Duration("elapsed", res.Duration), zap.Error(err))
			return results, fmt.Errorf("%w: %s: %w", ErrStepFailed, step.Name, err)
		}
		log.Info("step finished", zap.Duration("elapsed", res.Duration))
	}
	return results, nil
}
