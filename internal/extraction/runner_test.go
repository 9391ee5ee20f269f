package extraction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRunner(t *testing.T) {
	r, err := NewRunner(2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Release()

	doc := Document{Content: "date,amount,type\n2024-01-01,10.50,expense\n", Format: FormatCSV}

	t.Run("extracts_on_pool", func(t *testing.T) {
		out, err := r.Extract(context.Background(), doc, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(out))
		}
	})

	t.Run("concurrent_extractions", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 6)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := r.Extract(context.Background(), doc, Options{}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("expired_deadline_maps_to_timeout", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, err := r.Extract(ctx, doc, Options{})
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Extract(ctx, doc, Options{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("saturated_pool_gives_up_at_deadline", func(t *testing.T) {
		small, err := NewRunner(1, 50*time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer small.Release()

		hold := make(chan struct{})
		defer close(hold)
		if err := small.pool.Submit(func() { <-hold }); err != nil {
			t.Fatalf("occupy worker: %v", err)
		}

		start := time.Now()
		_, err = small.Extract(context.Background(), doc, Options{})
		if !errors.Is(err, ErrBusy) {
			t.Fatalf("expected ErrBusy, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("expected to give up near the 50ms deadline, waited %s", elapsed)
		}
	})

	t.Run("extraction_errors_pass_through", func(t *testing.T) {
		_, err := r.Extract(context.Background(), Document{Content: "no structure here", Format: FormatCSV}, Options{})
		var extErr *Error
		if !errors.As(err, &extErr) {
			t.Fatalf("expected extraction Error, got %v", err)
		}
	})
}
