package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

type Transaction struct {
	ID                   int64                   `json:"id"`
	ListingID            int64                   `json:"listing_id"`
	RequesterID          int64                   `json:"requester_id"`
	OwnerID              int64                   `json:"owner_id"`
	Kind                 enums.OfferType         `json:"kind"`
	Status               enums.TransactionStatus `json:"status"`
	ConfirmedByRequester bool                    `json:"confirmed_by_requester"`
	ConfirmedByOwner     bool                    `json:"confirmed_by_owner"`
	Amount               decimal.Decimal         `json:"amount"`
	Rental               *RentalTerms            `json:"rental,omitempty"`
	CalendarEventID      *string                 `json:"calendar_event_id,omitempty"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	CancelledAt          *time.Time              `json:"cancelled_at,omitempty"`
	Version              int64                   `json:"version"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

type RentalTerms struct {
	StartAt          time.Time       `json:"start_at"`
	ExpectedReturnAt time.Time       `json:"expected_return_at"`
	ActualReturnAt   *time.Time      `json:"actual_return_at,omitempty"`
	DailyPrice       decimal.Decimal `json:"daily_price"`
	Deposit          decimal.Decimal `json:"deposit"`
}

// Counterparty returns the id of the party opposite to role.
func (t Transaction) Counterparty(role enums.PartyRole) int64 {
	if role == enums.PartyOwner {
		return t.RequesterID
	}
	return t.OwnerID
}

// RoleOf resolves which side userID is on.
func (t Transaction) RoleOf(userID int64) (enums.PartyRole, bool) {
	switch userID {
	case t.RequesterID:
		return enums.PartyRequester, true
	case t.OwnerID:
		return enums.PartyOwner, true
	}
	return "", false
}
