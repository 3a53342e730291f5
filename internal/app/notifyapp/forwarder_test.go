package notifyapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/infra/natsbus"
	"github.com/ivankudzin/automarket/backend/internal/repo/memory"
)

type sent struct {
	chatID int64
	n      model.Notification
}

type senderStub struct {
	mu   sync.Mutex
	sent []sent
	err  error
	done chan struct{}
}

func (s *senderStub) SendNotification(_ context.Context, chatID int64, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{chatID: chatID, n: n})
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func seed(t *testing.T, db *memory.DB, email string, chatID *int64) model.Account {
	t.Helper()
	a, err := db.Accounts().Create(context.Background(), model.Account{Email: email, Role: enums.RoleClient, Status: enums.AccountActive, TelegramChatID: chatID})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func notificationFor(recipient int64) model.Effect {
	return model.NotificationEffect("test:"+time.Now().String(), model.Notification{
		RecipientID: recipient,
		Kind:        enums.NotifyTransactionCompleted,
		Title:       "Sale completed",
		Message:     "Both parties confirmed.",
	})
}

func TestForwarderSendsToLinkedChat(t *testing.T) {
	db := memory.New()
	chat := int64(5550001)
	linked := seed(t, db, "linked@example.com", &chat)
	unlinked := seed(t, db, "unlinked@example.com", nil)
	sender := &senderStub{}
	f := NewForwarder(db.Accounts(), sender, nil)

	f.Handle(context.Background(), notificationFor(linked.ID))
	f.Handle(context.Background(), notificationFor(unlinked.ID))
	f.Handle(context.Background(), notificationFor(999))
	f.Handle(context.Background(), model.CalendarEffect("calendar:1", model.CalendarRequest{TransactionID: 1}))

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one push, got %d", len(sender.sent))
	}
	if sender.sent[0].chatID != chat || sender.sent[0].n.Kind != enums.NotifyTransactionCompleted {
		t.Fatalf("unexpected push: %+v", sender.sent[0])
	}
}

func TestForwarderSwallowsSendErrors(t *testing.T) {
	db := memory.New()
	chat := int64(42)
	a := seed(t, db, "a@example.com", &chat)
	f := NewForwarder(db.Accounts(), &senderStub{err: errors.New("telegram 429")}, nil)

	f.Handle(context.Background(), notificationFor(a.ID))
}

func TestForwarderConsumesBus(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatalf("new nats server: %v", err)
	}
	srv.Start()
	defer srv.Shutdown()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatalf("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	db := memory.New()
	chat := int64(777)
	a := seed(t, db, "bus@example.com", &chat)
	sender := &senderStub{done: make(chan struct{}, 1)}
	f := NewForwarder(db.Accounts(), sender, nil)

	bus := natsbus.New(nc, "test.notifications", nil)
	sub, err := bus.SubscribeEffects("notifier", f.Handle)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := bus.Publish(context.Background(), notificationFor(a.ID)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-sender.done:
	case <-time.After(3 * time.Second):
		t.Fatalf("notification was not forwarded")
	}
}
