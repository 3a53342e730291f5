package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

type Listing struct {
	ID               int64                  `json:"id"`
	OwnerID          int64                  `json:"owner_id"`
	Title            string                 `json:"title"`
	Make             string                 `json:"make"`
	Model            string                 `json:"model"`
	Year             int                    `json:"year"`
	MileageKM        int                    `json:"mileage_km"`
	OfferType        enums.OfferType        `json:"offer_type"`
	Availability     enums.Availability     `json:"availability"`
	ValidationStatus enums.ValidationStatus `json:"validation_status"`
	Price            decimal.Decimal        `json:"price"`
	Negotiable       bool                   `json:"negotiable"`
	Views            int64                  `json:"views"`
	Version          int64                  `json:"version"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (l Listing) IsAvailable() bool {
	return l.Availability == enums.AvailabilityAvailable
}

// PriceQuery is what the external price advisor sees of a submitted listing.
type PriceQuery struct {
	Make      string          `json:"make"`
	Model     string          `json:"model"`
	Year      int             `json:"year,omitempty"`
	MileageKM int             `json:"mileage_km"`
	OfferType enums.OfferType `json:"offer_type"`
	Price     decimal.Decimal `json:"price"`
}
