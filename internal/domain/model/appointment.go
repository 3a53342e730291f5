package model

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

type Appointment struct {
	ID          int64                   `json:"id"`
	ListingID   int64                   `json:"listing_id"`
	RequesterID int64                   `json:"requester_id"`
	OwnerID     int64                   `json:"owner_id"`
	Kind        enums.AppointmentKind   `json:"kind"`
	Status      enums.AppointmentStatus `json:"status"`
	When        time.Time               `json:"when"`
	Message     string                  `json:"message"`
	Version     int64                   `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func (a Appointment) RoleOf(userID int64) (enums.PartyRole, bool) {
	switch userID {
	case a.RequesterID:
		return enums.PartyRequester, true
	case a.OwnerID:
		return enums.PartyOwner, true
	}
	return "", false
}

func (a Appointment) Counterparty(role enums.PartyRole) int64 {
	if role == enums.PartyOwner {
		return a.RequesterID
	}
	return a.OwnerID
}
