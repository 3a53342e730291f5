package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type recordingSink struct {
	mu    sync.Mutex
	got   []model.Effect
	err   error
	block chan struct{}
}

func (s *recordingSink) Deliver(_ context.Context, effect model.Effect) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, effect)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func notification(key string, recipient int64) model.Effect {
	return model.NotificationEffect(key, model.Notification{
		RecipientID: recipient,
		Kind:        enums.NotifyTransactionCompleted,
		Title:       "Deal completed",
	})
}

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close dispatcher: %v", err)
	}
}

func TestDispatcherDeliversEachEffectOnce(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Workers: 2}, nil, nil)
	d.Register(enums.EffectNotification, "recording", sink)
	d.Start(context.Background())

	effect := notification("transaction:1:completed:7", 7)
	d.Dispatch(context.Background(), []model.Effect{effect, effect})
	d.Dispatch(context.Background(), []model.Effect{effect, notification("transaction:1:completed:8", 8)})

	closeDispatcher(t, d)

	if got := sink.count(); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
}

func TestDispatcherSwallowsSinkErrors(t *testing.T) {
	failing := &recordingSink{err: errors.New("smtp down")}
	healthy := &recordingSink{}
	d := NewDispatcher(Config{Workers: 1}, nil, nil)
	d.Register(enums.EffectNotification, "failing", failing)
	d.Register(enums.EffectNotification, "healthy", healthy)
	d.Start(context.Background())

	d.Dispatch(context.Background(), []model.Effect{notification("case:1:decided:3", 3)})
	closeDispatcher(t, d)

	if failing.count() != 1 || healthy.count() != 1 {
		t.Fatalf("expected both sinks to receive the effect, got failing=%d healthy=%d", failing.count(), healthy.count())
	}
}

func TestDispatcherDropsWhenQueueIsFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(Config{QueueSize: 1, Workers: 1}, nil, nil)
	d.Register(enums.EffectNotification, "recording", sink)
	d.Start(context.Background())

	d.Dispatch(context.Background(), []model.Effect{notification("a", 1)})
	// wait until the worker holds the first effect so the queue slot is free again
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Dispatch(context.Background(), []model.Effect{
		notification("b", 1),
		notification("c", 1),
		notification("d", 1),
	})
	close(sink.block)
	closeDispatcher(t, d)

	if got := sink.count(); got != 2 {
		t.Fatalf("expected 2 deliveries with a one-slot queue, got %d", got)
	}
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{}, nil, nil)
	d.Register(enums.EffectNotification, "recording", sink)
	d.Start(context.Background())
	closeDispatcher(t, d)

	d.Dispatch(context.Background(), []model.Effect{notification("late", 1)})
	if sink.count() != 0 {
		t.Fatalf("expected no delivery after close")
	}
}

func TestLocalDeduperExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	dedup := NewLocalDeduper()
	dedup.now = func() time.Time { return now }

	first, _ := dedup.FirstSeen(context.Background(), "e1", time.Minute)
	again, _ := dedup.FirstSeen(context.Background(), "e1", time.Minute)
	if !first || again {
		t.Fatalf("expected first=true again=false, got %v %v", first, again)
	}

	now = now.Add(2 * time.Minute)
	afterTTL, _ := dedup.FirstSeen(context.Background(), "e1", time.Minute)
	if !afterTTL {
		t.Fatalf("expected id to be fresh after ttl")
	}
}
