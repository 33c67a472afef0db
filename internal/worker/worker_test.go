package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitReturnsResult(t *testing.T) {
	pool := NewPool(2, 8)
	pool.Start()
	defer pool.Stop()

	got, err := pool.Submit(context.Background(), func() string { return "decoded" })
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got != "decoded" {
		t.Errorf("result = %q, want decoded", got)
	}
}

func TestSubmitHonorsDeadline(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Submit(ctx, func() string {
		time.Sleep(500 * time.Millisecond)
		return "late"
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestSubmitManyJobs(t *testing.T) {
	pool := NewPool(4, 16)
	pool.Start()
	defer pool.Stop()

	results := make(chan string, 20)
	for i := 0; i < 20; i++ {
		go func() {
			r, err := pool.Submit(context.Background(), func() string { return "x" })
			if err != nil {
				results <- "err"
				return
			}
			results <- r
		}()
	}
	for i := 0; i < 20; i++ {
		if got := <-results; got != "x" {
			t.Fatalf("job %d returned %q", i, got)
		}
	}
}
