package handlers

import (
	"context"
	"net/http"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/pkg/validate"
	apptsvc "github.com/ivankudzin/automarket/backend/internal/services/appointments"
	"github.com/ivankudzin/automarket/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/automarket/backend/internal/transport/http/errors"
)

type AppointmentsHandler struct {
	service *apptsvc.Service
}

func NewAppointmentsHandler(service *apptsvc.Service) *AppointmentsHandler {
	return &AppointmentsHandler{service: service}
}

func (h *AppointmentsHandler) Request(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "APPOINTMENT_SERVICE_UNAVAILABLE", "appointment service is unavailable")
		return
	}

	var req dto.RequestAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httperrors.WriteDomain(w, err)
		return
	}

	a, err := h.service.Request(r.Context(), apptsvc.RequestInput{
		ListingID:   req.ListingID,
		RequesterID: identity.UserID,
		Kind:        enums.AppointmentKind(req.Kind),
		When:        req.When,
		Message:     req.Message,
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.AppointmentResponse{Appointment: a})
}

func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "APPOINTMENT_SERVICE_UNAVAILABLE", "appointment service is unavailable")
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	if _, party := a.RoleOf(identity.UserID); !party && !identity.IsAdmin() {
		httperrors.WriteDomain(w, errs.ErrNotParty)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.AppointmentResponse{Appointment: a})
}

func (h *AppointmentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Confirm)
}

func (h *AppointmentsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Decline)
}

func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Cancel)
}

func (h *AppointmentsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Complete)
}

func (h *AppointmentsHandler) act(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, appointmentID, actorID int64) (model.Appointment, error)) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "APPOINTMENT_SERVICE_UNAVAILABLE", "appointment service is unavailable")
		return
	}

	var a model.Appointment
	err := retryOnConflict(func() error {
		var err error
		a, err = call(r.Context(), id, identity.UserID)
		return err
	})
	if err != nil {
		httperrors.WriteDomain(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.AppointmentResponse{Appointment: a})
}
