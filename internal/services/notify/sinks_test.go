package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo/memory"
)

type calendarStub struct {
	id    string
	err   error
	event model.CalendarEvent
}

func (c *calendarStub) CreateEvent(_ context.Context, event model.CalendarEvent) (string, error) {
	c.event = event
	return c.id, c.err
}

func TestInboxSinkStoresNotificationOnce(t *testing.T) {
	db := memory.New()
	sink := NewInboxSink(db.Notifications())
	effect := notification("transaction:9:completed:4", 4)

	for i := 0; i < 2; i++ {
		if err := sink.Deliver(context.Background(), effect); err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}

	stored, err := db.Notifications().ListByRecipient(context.Background(), 4, 10)
	if err != nil {
		t.Fatalf("list inbox: %v", err)
	}
	if len(stored) != 1 || stored[0].EffectID != effect.ID {
		t.Fatalf("expected one stored notification, got %+v", stored)
	}
}

func seedAccount(t *testing.T, db *memory.DB, email string) model.Account {
	t.Helper()
	a, err := db.Accounts().Create(context.Background(), model.Account{
		Email:  email,
		Role:   enums.RoleClient,
		Status: enums.AccountActive,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func calendarEffect(txID int64, attendees ...int64) model.Effect {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.CalendarEffect("transaction:calendar", model.CalendarRequest{
		TransactionID: txID,
		Summary:       "Vehicle handover",
		Start:         start,
		End:           start.Add(time.Hour),
		AttendeeIDs:   attendees,
	})
}

func TestCalendarSinkRecordsEventID(t *testing.T) {
	db := memory.New()
	buyer := seedAccount(t, db, "buyer@example.com")
	owner := seedAccount(t, db, "owner@example.com")
	tx, err := db.Transactions().Create(context.Background(), model.Transaction{
		ListingID:   1,
		RequesterID: buyer.ID,
		OwnerID:     owner.ID,
		Kind:        enums.OfferSale,
		Status:      enums.TransactionCompleted,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	provider := &calendarStub{id: "evt-42"}
	sink := NewCalendarSink(provider, db.Accounts(), db.Transactions())
	if err := sink.Deliver(context.Background(), calendarEffect(tx.ID, buyer.ID, owner.ID)); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(provider.event.AttendeeEmails) != 2 || provider.event.AttendeeEmails[0] != "buyer@example.com" {
		t.Fatalf("unexpected attendees: %v", provider.event.AttendeeEmails)
	}
	got, err := db.Transactions().Get(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.CalendarEventID == nil || *got.CalendarEventID != "evt-42" {
		t.Fatalf("expected calendar event id to be stored, got %v", got.CalendarEventID)
	}
	if got.Version != tx.Version {
		t.Fatalf("calendar id must not bump the transaction version")
	}
}

func TestCalendarSinkIgnoresMissingEventID(t *testing.T) {
	db := memory.New()
	buyer := seedAccount(t, db, "buyer@example.com")
	tx, err := db.Transactions().Create(context.Background(), model.Transaction{
		ListingID:   1,
		RequesterID: buyer.ID,
		OwnerID:     99,
		Kind:        enums.OfferSale,
		Status:      enums.TransactionCompleted,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	sink := NewCalendarSink(&calendarStub{}, db.Accounts(), db.Transactions())
	if err := sink.Deliver(context.Background(), calendarEffect(tx.ID, buyer.ID)); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	got, _ := db.Transactions().Get(context.Background(), tx.ID)
	if got.CalendarEventID != nil {
		t.Fatalf("expected no calendar event id")
	}
}

func TestCalendarSinkReportsProviderError(t *testing.T) {
	db := memory.New()
	buyer := seedAccount(t, db, "buyer@example.com")
	boom := errors.New("provider down")

	sink := NewCalendarSink(&calendarStub{err: boom}, db.Accounts(), db.Transactions())
	err := sink.Deliver(context.Background(), calendarEffect(1, buyer.ID))
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
