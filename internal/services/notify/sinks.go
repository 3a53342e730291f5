package notify

import (
	"context"
	"fmt"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

// InboxSink stores notifications in the in-app inbox. The effect id is the
// inbox key, so a replayed effect is stored once.
type InboxSink struct {
	store repo.NotificationStore
}

func NewInboxSink(store repo.NotificationStore) *InboxSink {
	return &InboxSink{store: store}
}

func (s *InboxSink) Deliver(ctx context.Context, effect model.Effect) error {
	if s.store == nil {
		return fmt.Errorf("notification store is nil")
	}
	n := effect.Notification
	if n == nil {
		return fmt.Errorf("effect %s has no notification", effect.ID)
	}

	_, _, err := s.store.Insert(ctx, model.StoredNotification{
		EffectID:    effect.ID,
		RecipientID: n.RecipientID,
		Kind:        n.Kind,
		Title:       n.Title,
		Message:     n.Message,
		Payload:     n.Payload,
	})
	return err
}

type Publisher interface {
	Publish(ctx context.Context, effect model.Effect) error
}

// BusSink forwards notifications to the message bus for push delivery.
type BusSink struct {
	publisher Publisher
}

func NewBusSink(publisher Publisher) *BusSink {
	return &BusSink{publisher: publisher}
}

func (s *BusSink) Deliver(ctx context.Context, effect model.Effect) error {
	if s.publisher == nil {
		return fmt.Errorf("bus publisher is nil")
	}
	return s.publisher.Publish(ctx, effect)
}

// CalendarProvider returns the external event id, or an empty id when the
// provider did not create one.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, event model.CalendarEvent) (string, error)
}

// CalendarSink creates the calendar event of a completed transaction and
// records its id on the transaction.
type CalendarSink struct {
	provider     CalendarProvider
	accounts     repo.AccountStore
	transactions repo.TransactionStore
}

func NewCalendarSink(provider CalendarProvider, accounts repo.AccountStore, transactions repo.TransactionStore) *CalendarSink {
	return &CalendarSink{
		provider:     provider,
		accounts:     accounts,
		transactions: transactions,
	}
}

func (s *CalendarSink) Deliver(ctx context.Context, effect model.Effect) error {
	if s.provider == nil || s.accounts == nil || s.transactions == nil {
		return fmt.Errorf("calendar sink is not configured")
	}
	req := effect.Calendar
	if req == nil {
		return fmt.Errorf("effect %s has no calendar request", effect.ID)
	}

	emails := make([]string, 0, len(req.AttendeeIDs))
	for _, id := range req.AttendeeIDs {
		account, err := s.accounts.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load attendee %d: %w", id, err)
		}
		if account.Email != "" {
			emails = append(emails, account.Email)
		}
	}

	eventID, err := s.provider.CreateEvent(ctx, model.CalendarEvent{
		Summary:        req.Summary,
		Description:    req.Description,
		Start:          req.Start,
		End:            req.End,
		AttendeeEmails: emails,
	})
	if err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	if eventID == "" {
		return nil
	}
	return s.transactions.SetCalendarEvent(ctx, req.TransactionID, eventID)
}
