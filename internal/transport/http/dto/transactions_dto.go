package dto

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type RentalTermsRequest struct {
	StartAt          time.Time `json:"start_at" validate:"required"`
	ExpectedReturnAt time.Time `json:"expected_return_at" validate:"required"`
	Deposit          string    `json:"deposit" validate:"nonnegative_amount"`
}

type RequestTransactionRequest struct {
	ListingID int64               `json:"listing_id" validate:"gt=0"`
	Kind      string              `json:"kind" validate:"required,oneof=sale rental"`
	Rental    *RentalTermsRequest `json:"rental,omitempty"`
}

type TransactionResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Changed     bool              `json:"changed"`
}

type RequestAppointmentRequest struct {
	ListingID int64     `json:"listing_id" validate:"gt=0"`
	Kind      string    `json:"kind" validate:"required,oneof=visit test_drive first_contact"`
	When      time.Time `json:"when" validate:"required"`
	Message   string    `json:"message" validate:"max=1000"`
}

type AppointmentResponse struct {
	Appointment model.Appointment `json:"appointment"`
}

type NotificationsResponse struct {
	Items []model.StoredNotification `json:"items"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
