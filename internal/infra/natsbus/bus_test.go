package natsbus

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatalf("new nats server: %v", err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatalf("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestBusRoundTripsEffects(t *testing.T) {
	nc := startTestNATS(t)
	bus := New(nc, "test.notifications", nil)

	received := make(chan model.Effect, 1)
	sub, err := bus.SubscribeEffects("", func(_ context.Context, e model.Effect) {
		received <- e
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	effect := model.NotificationEffect("case:3:decided:11", model.Notification{
		RecipientID: 11,
		Kind:        enums.NotifyTargetModerated,
		Title:       "Listing suspended",
		Message:     "Your listing was suspended",
	})
	if err := bus.Publish(context.Background(), effect); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != effect.ID || got.Notification == nil || got.Notification.RecipientID != 11 {
			t.Fatalf("unexpected effect: %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for effect")
	}
}

func TestBusDropsMalformedMessages(t *testing.T) {
	nc := startTestNATS(t)
	bus := New(nc, "test.malformed", nil)

	received := make(chan model.Effect, 2)
	sub, err := bus.SubscribeEffects("", func(_ context.Context, e model.Effect) {
		received <- e
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := nc.Publish("test.malformed", []byte("{not json")); err != nil {
		t.Fatalf("raw publish: %v", err)
	}
	good := model.NotificationEffect("ok", model.Notification{RecipientID: 1})
	if err := bus.Publish(context.Background(), good); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != good.ID {
			t.Fatalf("expected the well-formed effect first, got %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for effect")
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(" ", "api", "", nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
