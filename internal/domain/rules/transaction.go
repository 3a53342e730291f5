package rules

import (
	"fmt"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

const handoverDuration = time.Hour

// ConfirmTransaction sets the flag for role. changed is false when the flag
// was already set, which makes repeated confirmations a no-op. The status
// becomes completed only when both flags are true.
func ConfirmTransaction(t model.Transaction, role enums.PartyRole, now time.Time) (model.Transaction, bool, error) {
	if !role.Valid() {
		return model.Transaction{}, false, errs.Invalid("invalid actor role")
	}
	switch t.Status {
	case enums.TransactionCancelled, enums.TransactionReturned:
		return model.Transaction{}, false, errs.ErrTransactionClosed
	}

	if role == enums.PartyRequester {
		if t.ConfirmedByRequester {
			return t, false, nil
		}
		t.ConfirmedByRequester = true
	} else {
		if t.ConfirmedByOwner {
			return t, false, nil
		}
		t.ConfirmedByOwner = true
	}

	if t.ConfirmedByRequester && t.ConfirmedByOwner {
		t.Status = enums.TransactionCompleted
		completedAt := now.UTC()
		t.CompletedAt = &completedAt
	} else {
		t.Status = enums.TransactionConfirmedByOne
	}
	return t, true, nil
}

func CancelTransaction(t model.Transaction, now time.Time) (model.Transaction, error) {
	switch t.Status {
	case enums.TransactionCompleted:
		return model.Transaction{}, errs.ErrAlreadyCompleted
	case enums.TransactionCancelled, enums.TransactionReturned:
		return model.Transaction{}, errs.ErrTransactionClosed
	}
	t.Status = enums.TransactionCancelled
	cancelledAt := now.UTC()
	t.CancelledAt = &cancelledAt
	return t, nil
}

func ReturnRental(t model.Transaction, now time.Time) (model.Transaction, error) {
	if t.Kind != enums.OfferRental {
		return model.Transaction{}, errs.ErrNotARental
	}
	if t.Status != enums.TransactionCompleted {
		return model.Transaction{}, errs.ErrNotCompleted
	}
	t.Status = enums.TransactionReturned
	if t.Rental != nil {
		terms := *t.Rental
		returnedAt := now.UTC()
		terms.ActualReturnAt = &returnedAt
		t.Rental = &terms
	}
	return t, nil
}

// TransactionEffects describes what the parties must hear about a transition
// of t into its current status. actor is the side that caused it; it is
// empty for transitions without a single acting party.
func TransactionEffects(t model.Transaction, actor enums.PartyRole) []model.Effect {
	switch t.Status {
	case enums.TransactionPending:
		return []model.Effect{transactionNotice(t, t.OwnerID, enums.NotifyTransactionRequested,
			"New booking request",
			fmt.Sprintf("You received a %s request for listing #%d.", t.Kind, t.ListingID))}
	case enums.TransactionConfirmedByOne:
		return []model.Effect{transactionNotice(t, t.Counterparty(actor), enums.NotifyTransactionConfirmed,
			"Transaction confirmed by the other party",
			fmt.Sprintf("The other party confirmed transaction #%d. Confirm it to complete the %s.", t.ID, t.Kind))}
	case enums.TransactionCompleted:
		effects := []model.Effect{
			transactionNotice(t, t.RequesterID, enums.NotifyTransactionCompleted,
				"Transaction completed", fmt.Sprintf("Transaction #%d is completed.", t.ID)),
			transactionNotice(t, t.OwnerID, enums.NotifyTransactionCompleted,
				"Transaction completed", fmt.Sprintf("Transaction #%d is completed.", t.ID)),
		}
		return append(effects, calendarEffect(t))
	case enums.TransactionCancelled:
		recipients := []int64{t.RequesterID, t.OwnerID}
		if actor.Valid() {
			recipients = []int64{t.Counterparty(actor)}
		}
		effects := make([]model.Effect, 0, len(recipients))
		for _, id := range recipients {
			effects = append(effects, transactionNotice(t, id, enums.NotifyTransactionCancelled,
				"Transaction cancelled", fmt.Sprintf("Transaction #%d was cancelled.", t.ID)))
		}
		return effects
	case enums.TransactionReturned:
		return []model.Effect{
			transactionNotice(t, t.RequesterID, enums.NotifyRentalReturned,
				"Rental returned", fmt.Sprintf("The rental in transaction #%d has been returned.", t.ID)),
			transactionNotice(t, t.OwnerID, enums.NotifyRentalReturned,
				"Rental returned", fmt.Sprintf("The rental in transaction #%d has been returned.", t.ID)),
		}
	}
	return nil
}

func transactionNotice(t model.Transaction, recipient int64, kind enums.NotificationKind, title, message string) model.Effect {
	return model.NotificationEffect(
		fmt.Sprintf("transaction:%d:%s:%d", t.ID, t.Status, recipient),
		model.Notification{
			RecipientID: recipient,
			Kind:        kind,
			Title:       title,
			Message:     message,
			Payload: map[string]any{
				"transaction_id": t.ID,
				"listing_id":     t.ListingID,
				"status":         string(t.Status),
			},
		},
	)
}

func calendarEffect(t model.Transaction) model.Effect {
	req := model.CalendarRequest{
		TransactionID: t.ID,
		AttendeeIDs:   []int64{t.RequesterID, t.OwnerID},
	}
	if t.Kind == enums.OfferRental && t.Rental != nil {
		req.Summary = fmt.Sprintf("Vehicle rental #%d", t.ID)
		req.Description = fmt.Sprintf("Rental of listing #%d, deposit %s, daily price %s.", t.ListingID, t.Rental.Deposit.StringFixed(2), t.Rental.DailyPrice.StringFixed(2))
		req.Start = t.Rental.StartAt
		req.End = t.Rental.ExpectedReturnAt
	} else {
		start := time.Now().UTC()
		if t.CompletedAt != nil {
			start = *t.CompletedAt
		}
		start = start.Truncate(time.Hour).Add(24 * time.Hour)
		req.Summary = fmt.Sprintf("Vehicle handover #%d", t.ID)
		req.Description = fmt.Sprintf("Handover of listing #%d for %s.", t.ListingID, t.Amount.StringFixed(2))
		req.Start = start
		req.End = start.Add(handoverDuration)
	}
	return model.CalendarEffect(fmt.Sprintf("transaction:%d:calendar", t.ID), req)
}
