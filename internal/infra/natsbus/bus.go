// Package natsbus carries committed effects over NATS with OpenTelemetry
// trace propagation in message headers.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

const DefaultSubject = "automarket.notifications"

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publish serializes v as JSON and publishes it to subject.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if err := nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe decodes JSON messages of type T. Malformed messages are passed to
// onError and dropped.
func Subscribe[T any](nc *nats.Conn, subject, queue string, handler func(context.Context, T), onError func(error)) (*nats.Subscription, error) {
	cb := func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			if onError != nil {
				onError(fmt.Errorf("decode %s message: %w", msg.Subject, err))
			}
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, v)
	}
	if queue != "" {
		return nc.QueueSubscribe(subject, queue, cb)
	}
	return nc.Subscribe(subject, cb)
}

type Bus struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

func Connect(url, name, subject string, logger *zap.Logger) (*Bus, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return New(nc, subject, logger), nil
}

func New(nc *nats.Conn, subject string, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	return &Bus{nc: nc, subject: subject, logger: logger}
}

// Publish sends a notification effect to the bus subject.
func (b *Bus) Publish(ctx context.Context, effect model.Effect) error {
	if b == nil || b.nc == nil {
		return fmt.Errorf("nats bus is not connected")
	}
	return Publish(ctx, b.nc, b.subject, effect)
}

// SubscribeEffects delivers every effect published on the bus subject to
// handler. Instances sharing queue split the stream between them.
func (b *Bus) SubscribeEffects(queue string, handler func(context.Context, model.Effect)) (*nats.Subscription, error) {
	if b == nil || b.nc == nil {
		return nil, fmt.Errorf("nats bus is not connected")
	}
	return Subscribe(b.nc, b.subject, queue, handler, func(err error) {
		b.logger.Warn("drop malformed bus message", zap.Error(err))
	})
}

func (b *Bus) Flush() error {
	if b == nil || b.nc == nil {
		return nil
	}
	return b.nc.Flush()
}

func (b *Bus) Close() {
	if b == nil || b.nc == nil {
		return
	}
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn("drain nats connection", zap.Error(err))
		b.nc.Close()
	}
}
