package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/pkg/validate"
	listingsvc "github.com/ivankudzin/automarket/backend/internal/services/listings"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

type ListingsHandler struct {
	service *listingsvc.Service
}

func NewListingsHandler(service *listingsvc.Service) *ListingsHandler {
	return &ListingsHandler{service: service}
}

func (h *ListingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	var req dto.SubmitListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "price must be a decimal amount")
		return
	}

	listing, err := h.service.Submit(r.Context(), listingsvc.SubmitInput{
		OwnerID:    identity.UserID,
		Title:      req.Title,
		Make:       req.Make,
		Model:      req.Model,
		Year:       req.Year,
		MileageKM:  req.MileageKM,
		OfferType:  enums.OfferType(req.OfferType),
		Price:      price,
		Negotiable: req.Negotiable,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewListingResponse(listing))
}

// Get returns the listing and counts the view for everyone but its owner.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	views, err := h.service.RecordView(r.Context(), id, identity.UserID)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	listing.Views = views

	httperrors.Write(w, http.StatusOK, dto.NewListingResponse(listing))
}
