package dto

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type SubmitListingRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Make       string `json:"make" validate:"required,max=64"`
	Model      string `json:"model" validate:"required,max=64"`
	Year       int    `json:"year" validate:"omitempty,gte=1900"`
	MileageKM  int    `json:"mileage_km" validate:"gte=0"`
	OfferType  string `json:"offer_type" validate:"required,oneof=sale rental"`
	Price      string `json:"price" validate:"required,positive_amount"`
	Negotiable bool   `json:"negotiable"`
}

type ListingResponse struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	Title            string    `json:"title"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Year             int       `json:"year,omitempty"`
	MileageKM        int       `json:"mileage_km"`
	OfferType        string    `json:"offer_type"`
	Availability     string    `json:"availability"`
	ValidationStatus string    `json:"validation_status"`
	Price            string    `json:"price"`
	Negotiable       bool      `json:"negotiable"`
	Views            int64     `json:"views"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewListingResponse(l model.Listing) ListingResponse {
	return ListingResponse{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		Title:            l.Title,
		Make:             l.Make,
		Model:            l.Model,
		Year:             l.Year,
		MileageKM:        l.MileageKM,
		OfferType:        string(l.OfferType),
		Availability:     string(l.Availability),
		ValidationStatus: string(l.ValidationStatus),
		Price:            l.Price.StringFixed(2),
		Negotiable:       l.Negotiable,
		Views:            l.Views,
		CreatedAt:        l.CreatedAt,
	}
}
