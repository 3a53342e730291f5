package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/pkg/validate"
	txsvc "github.com/ivankudzin/automarket/backend/internal/services/transactions"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

type TransactionsHandler struct {
	service *txsvc.Service
}

func NewTransactionsHandler(service *txsvc.Service) *TransactionsHandler {
	return &TransactionsHandler{service: service}
}

func (h *TransactionsHandler) Request(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "TRANSACTION_SERVICE_UNAVAILABLE", "transaction service is unavailable")
		return
	}

	var req dto.RequestTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	in := txsvc.RequestInput{
		ListingID:   req.ListingID,
		RequesterID: identity.UserID,
		Kind:        enums.OfferType(req.Kind),
	}
	if req.Rental != nil {
		deposit := decimal.Zero
		if req.Rental.Deposit != "" {
			var err error
			if deposit, err = decimal.NewFromString(req.Rental.Deposit); err != nil {
				writeBadRequest(w, "VALIDATION_ERROR", "deposit must be a decimal amount")
				return
			}
		}
		in.Rental = &txsvc.RentalInput{
			StartAt:          req.Rental.StartAt,
			ExpectedReturnAt: req.Rental.ExpectedReturnAt,
			Deposit:          deposit,
		}
	}

	result, err := h.service.Request(r.Context(), in)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.TransactionResponse{Transaction: result.Transaction, Changed: result.Changed})
}

func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "TRANSACTION_SERVICE_UNAVAILABLE", "transaction service is unavailable")
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if _, party := t.RoleOf(identity.UserID); !party && !identity.IsAdmin() {
		httperrors.WriteDomain(w, errs.ErrNotParty)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.TransactionResponse{Transaction: t})
}

func (h *TransactionsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id int64, role enums.PartyRole) (txsvc.Result, error) {
		return h.service.Confirm(r.Context(), id, role)
	})
}

func (h *TransactionsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id int64, role enums.PartyRole) (txsvc.Result, error) {
		return h.service.Cancel(r.Context(), id, role)
	})
}

// Return is reserved to the owner, who takes the vehicle back.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id int64, role enums.PartyRole) (txsvc.Result, error) {
		if role != enums.PartyOwner {
			return txsvc.Result{}, errs.ErrNotOwner
		}
		return h.service.ReturnRental(r.Context(), id)
	})
}

func (h *TransactionsHandler) act(w http.ResponseWriter, r *http.Request, call func(id int64, role enums.PartyRole) (txsvc.Result, error)) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "TRANSACTION_SERVICE_UNAVAILABLE", "transaction service is unavailable")
		return
	}

	role, err := h.service.ResolveRole(r.Context(), id, identity.UserID)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	var result txsvc.Result
	err = retryOnConflict(func() error {
		var err error
		result, err = call(id, role)
		return err
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.TransactionResponse{Transaction: result.Transaction, Changed: result.Changed})
}
