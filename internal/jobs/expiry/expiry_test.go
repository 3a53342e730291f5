package expiry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRestorer struct {
	calls    atomic.Int32
	restored int
	err      error
}

func (f *fakeRestorer) RestoreExpired(context.Context) (int, error) {
	f.calls.Add(1)
	return f.restored, f.err
}

func TestRunReturnsRestorerError(t *testing.T) {
	boom := errors.New("db down")
	job := New(&fakeRestorer{err: boom}, time.Second, nil)

	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped restorer error, got %v", err)
	}
}

func TestRunWithoutRestorerIsNoop(t *testing.T) {
	if err := New(nil, 0, nil).Run(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestLoopRunsUntilCancelled(t *testing.T) {
	restorer := &fakeRestorer{restored: 1}
	job := New(restorer, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Loop(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for restorer.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
	if restorer.calls.Load() < 3 {
		t.Fatalf("expected at least 3 passes, got %d", restorer.calls.Load())
	}
}
