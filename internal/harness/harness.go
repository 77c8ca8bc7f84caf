package harness

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"kafkameter/internal/logger"
	"kafkameter/internal/models"
	"kafkameter/internal/sampler"
)

// Listener receives run lifecycle signals.
type Listener interface {
	TestStarted()
	TestEnded() error
}

// Plan describes the load a Runner generates.
type Plan struct {
	Topic      string
	ClientID   string
	Workers    int
	Iterations int
	Message    string
}

// Runner is a minimal host: it signals run-start, drives worker units
// concurrently and signals run-end.
type Runner struct {
	plan      Plan
	source    sampler.ClientSource
	sink      sampler.FailureSink
	listeners []Listener
}

// NewRunner creates a Runner. sink may be nil.
func NewRunner(plan Plan, source sampler.ClientSource, sink sampler.FailureSink, listeners ...Listener) *Runner {
	return &Runner{
		plan:      plan,
		source:    source,
		sink:      sink,
		listeners: listeners,
	}
}

// Run executes one run. Listeners are started in order and ended in reverse
// order; run-end is always delivered, even when ctx is cancelled mid-run.
// The returned error is non-nil only when ctx ended the run early.
func (r *Runner) Run(ctx context.Context) (models.RunSummary, error) {
	runID := uuid.New().String()
	log := logger.WithRun(runID)

	summary := models.RunSummary{
		RunID:     runID,
		Topic:     r.plan.Topic,
		ClientID:  r.plan.ClientID,
		Workers:   r.plan.Workers,
		StartedAt: time.Now(),
	}

	log.WithFields(logrus.Fields{
		"workers":    r.plan.Workers,
		"iterations": r.plan.Iterations,
		"topic":      r.plan.Topic,
	}).Info("Run started")

	for _, l := range r.listeners {
		l.TestStarted()
	}

	var succeeded, failed atomic.Int64
	smp := sampler.New(r.source, r.sink, r.plan.Topic, runID)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.plan.Workers; w++ {
		worker := w
		g.Go(func() error {
			for i := 0; i < r.plan.Iterations; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if smp.Sample(gctx, worker, i, r.plan.Message).Succeeded() {
					succeeded.Inc()
				} else {
					failed.Inc()
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	var teardownErrs []error
	for i := len(r.listeners) - 1; i >= 0; i-- {
		if err := r.listeners[i].TestEnded(); err != nil {
			teardownErrs = append(teardownErrs, err)
		}
	}

	summary.EndedAt = time.Now()
	summary.Succeeded = succeeded.Load()
	summary.Failed = failed.Load()
	summary.Samples = summary.Succeeded + summary.Failed
	if err := errors.Join(teardownErrs...); err != nil {
		summary.TeardownError = err.Error()
		log.WithError(err).Error("Run ended with teardown errors")
	}

	log.WithFields(logrus.Fields{
		"samples":    summary.Samples,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"duration":   summary.Duration().String(),
		"throughput": summary.Throughput(),
	}).Info("Run finished")

	return summary, runErr
}
