package handlers

import (
	"net/http"
	"strconv"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/pkg/validate"
	modsvc "github.com/ivankudzin/automarket/backend/internal/services/moderation"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

// CasesHandler serves the admin moderation surface. Routes are mounted
// behind the admin role check.
type CasesHandler struct {
	service *modsvc.Service
}

func NewCasesHandler(service *modsvc.Service) *CasesHandler {
	return &CasesHandler{service: service}
}

func (h *CasesHandler) Open(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.OpenCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	opened, err := h.service.OpenCase(r.Context(), modsvc.OpenCaseInput{
		Target:     targetRef(req.TargetType, req.TargetID),
		ReasonCode: req.ReasonCode,
		Reason:     req.Reason,
		OpenedBy:   identity.UserID,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CaseResponse{Case: opened})
}

func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	c, err := h.service.GetCase(r.Context(), id)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.CaseResponse{Case: c})
}

func (h *CasesHandler) Decide(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.DecideCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	var result modsvc.DecisionResult
	err := retryOnConflict(func() error {
		var err error
		result, err = h.service.Decide(r.Context(), modsvc.DecideInput{
			CaseID:      id,
			ModeratorID: identity.UserID,
			Action:      enums.CaseAction(req.Action),
			ReasonCode:  req.ReasonCode,
			Reason:      req.Reason,
			ExpiresAt:   req.ExpiresAt,
		})
		return err
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	response := dto.DecisionResponse{
		Case:              result.Case,
		Account:           result.Account,
		CascadedListings:  make([]int64, 0, len(result.CascadedListings)),
		ResolvedReporters: len(result.ResolvedReporters),
	}
	if result.Listing != nil {
		listing := dto.NewListingResponse(*result.Listing)
		response.Listing = &listing
	}
	for _, l := range result.CascadedListings {
		response.CascadedListings = append(response.CascadedListings, l.ID)
	}
	httperrors.Write(w, http.StatusOK, response)
}

func (h *CasesHandler) Reasons(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	reasons := h.service.ListReasons()
	items := make([]dto.ReasonItem, 0, len(reasons))
	for _, reason := range reasons {
		items = append(items, dto.ReasonItem{
			ReasonCode: reason.ReasonCode,
			Label:      reason.Label,
			ReasonText: reason.ReasonText,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.ReasonsResponse{Items: items})
}

// History lists the audit trail of ?target_type=&target_id=.
func (h *CasesHandler) History(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	targetID, err := strconv.ParseInt(r.URL.Query().Get("target_id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id must be an integer")
		return
	}
	entries, err := h.service.History(r.Context(), targetRef(r.URL.Query().Get("target_type"), targetID))
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if entries == nil {
		entries = []model.ModerationLogEntry{}
	}
	httperrors.Write(w, http.StatusOK, dto.HistoryResponse{Items: entries})
}
