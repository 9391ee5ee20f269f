package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"pennywise/internal/logger"
)

var (
	// ErrBusy is returned when no worker frees up before the deadline.
	ErrBusy = errors.New("extraction: worker pool saturated")
	// ErrTimeout is returned when a document is not processed within the runner timeout.
	ErrTimeout = errors.New("extraction: timed out")
)

// retryEvery is how often a submission retries while every worker is busy.
const retryEvery = 10 * time.Millisecond

// Runner executes extractions on a bounded worker pool so that a burst of
// large documents cannot exhaust the process.
type Runner struct {
	pool    *ants.Pool
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewRunner creates a runner with the given number of workers. A zero timeout
// leaves deadlines to the caller's context.
func NewRunner(workers int, timeout time.Duration) (*Runner, error) {
	if workers <= 0 {
		workers = 1
	}
	log := logger.Named("extraction")

	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(time.Minute),
		ants.WithPanicHandler(func(p any) {
			log.Errorw("Extraction worker panic", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create extraction pool: %w", err)
	}
	return &Runner{pool: pool, timeout: timeout, log: log}, nil
}

type extractResult struct {
	out []Candidate
	err error
}

// Extract runs Extract on a pooled worker, bounded by the runner timeout.
func (r *Runner) Extract(ctx context.Context, doc Document, opts Options) ([]Candidate, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan extractResult, 1)
	err := r.submit(ctx, func() {
		defer func() {
			if p := recover(); p != nil {
				r.log.Errorw("Extraction panicked", "format", doc.Format, "panic", p)
				done <- extractResult{err: &Error{Format: doc.Format, Reason: "parser failure", Err: fmt.Errorf("%v", p)}}
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- extractResult{err: err}
			return
		}
		out, err := Extract(ctx, doc, opts)
		done <- extractResult{out: out, err: err}
	})
	if err != nil {
		if errors.Is(err, ErrBusy) {
			r.log.Warnw("Extraction rejected, no free worker", "format", doc.Format)
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("submit extraction: %w", err)
	}

	start := time.Now()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, timeoutOr(res.err)
		}
		r.log.Debugw("Document extracted", "format", doc.Format, "candidates", len(res.out), "elapsed", time.Since(start))
		return res.out, nil
	case <-ctx.Done():
		r.log.Warnw("Extraction abandoned", "format", doc.Format, "error", ctx.Err())
		return nil, timeoutOr(ctx.Err())
	}
}

// submit hands task to a free worker, waiting for one no longer than ctx
// allows.
func (r *Runner) submit(ctx context.Context, task func()) error {
	ticker := time.NewTicker(retryEvery)
	defer ticker.Stop()
	for {
		err := r.pool.Submit(task)
		if !errors.Is(err, ants.ErrPoolOverload) {
			return err
		}
		select {
		case <-ctx.Done():
			return ErrBusy
		case <-ticker.C:
		}
	}
}

// Release stops the worker pool.
func (r *Runner) Release() {
	r.pool.Release()
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
