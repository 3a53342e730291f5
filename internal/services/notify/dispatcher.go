package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

const (
	defaultQueueSize       = 1024
	defaultWorkers         = 4
	defaultDedupTTL        = 24 * time.Hour
	defaultDeliveryTimeout = 10 * time.Second
)

// Sink delivers one effect. Errors are logged by the dispatcher and never
// reach the engine that produced the effect.
type Sink interface {
	Deliver(ctx context.Context, effect model.Effect) error
}

type SinkFunc func(ctx context.Context, effect model.Effect) error

func (f SinkFunc) Deliver(ctx context.Context, effect model.Effect) error {
	return f(ctx, effect)
}

type Deduper interface {
	FirstSeen(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type Config struct {
	QueueSize       int
	Workers         int
	DedupTTL        time.Duration
	DeliveryTimeout time.Duration
}

type namedSink struct {
	name string
	sink Sink
}

// Dispatcher consumes effects after their transition committed. Dispatch
// never blocks: a full queue drops the effect with a warning.
type Dispatcher struct {
	cfg    Config
	dedup  Deduper
	logger *zap.Logger

	mu      sync.RWMutex
	sinks   map[enums.EffectKind][]namedSink
	queue   chan model.Effect
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(cfg Config, dedup Deduper, logger *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = defaultDedupTTL
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = defaultDeliveryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dedup == nil {
		dedup = NewLocalDeduper()
	}

	return &Dispatcher{
		cfg:    cfg,
		dedup:  dedup,
		logger: logger,
		sinks:  make(map[enums.EffectKind][]namedSink),
		queue:  make(chan model.Effect, cfg.QueueSize),
	}
}

// Register adds a sink for kind. Sinks must be registered before Start.
func (d *Dispatcher) Register(kind enums.EffectKind, name string, sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks[kind] = append(d.sinks[kind], namedSink{name: name, sink: sink})
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for effect := range d.queue {
				d.deliver(ctx, effect)
			}
		}()
	}
}

func (d *Dispatcher) Dispatch(_ context.Context, effects []model.Effect) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, dropping effects", zap.Int("count", len(effects)))
		return
	}

	for _, effect := range effects {
		select {
		case d.queue <- effect:
		default:
			d.logger.Warn("effect queue full, dropping effect",
				zap.String("effect_id", effect.ID),
				zap.String("kind", string(effect.Kind)),
			)
		}
	}
}

// Close stops accepting effects and waits until queued ones are delivered
// or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain effect queue: %w", ctx.Err())
	}
}

func (d *Dispatcher) deliver(ctx context.Context, effect model.Effect) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
	defer cancel()

	fields := effectFields(effect)

	first, err := d.dedup.FirstSeen(ctx, effect.ID, d.cfg.DedupTTL)
	if err != nil {
		d.logger.Warn("effect dedup unavailable, delivering anyway", append(fields, zap.Error(err))...)
	} else if !first {
		d.logger.Debug("duplicate effect skipped", fields...)
		return
	}

	d.mu.RLock()
	sinks := d.sinks[effect.Kind]
	d.mu.RUnlock()

	if len(sinks) == 0 {
		d.logger.Warn("no sink registered for effect", fields...)
		return
	}

	for _, s := range sinks {
		if err := s.sink.Deliver(ctx, effect); err != nil {
			d.logger.Warn("effect delivery failed", append(fields, zap.String("sink", s.name), zap.Error(err))...)
		}
	}
}

func effectFields(effect model.Effect) []zap.Field {
	fields := []zap.Field{
		zap.String("effect_id", effect.ID),
		zap.String("kind", string(effect.Kind)),
	}
	if effect.Notification != nil {
		fields = append(fields,
			zap.Int64("recipient_id", effect.Notification.RecipientID),
			zap.String("notification_kind", string(effect.Notification.Kind)),
		)
	}
	if effect.Calendar != nil {
		fields = append(fields, zap.Int64("transaction_id", effect.Calendar.TransactionID))
	}
	return fields
}

// LocalDeduper remembers effect ids in process memory. It backs the
// dispatcher when redis is not configured.
type LocalDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewLocalDeduper() *LocalDeduper {
	return &LocalDeduper{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (l *LocalDeduper) FirstSeen(_ context.Context, id string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, expires := range l.seen {
		if !expires.After(now) {
			delete(l.seen, key)
		}
	}
	if expires, ok := l.seen[id]; ok && expires.After(now) {
		return false, nil
	}
	l.seen[id] = now.Add(ttl)
	return true, nil
}
