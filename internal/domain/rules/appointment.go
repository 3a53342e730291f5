package rules

import (
	"fmt"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type AppointmentAction string

const (
	AppointmentConfirm  AppointmentAction = "confirm"
	AppointmentDecline  AppointmentAction = "decline"
	AppointmentCancel   AppointmentAction = "cancel"
	AppointmentComplete AppointmentAction = "complete"
)

type appointmentRule struct {
	from      []enums.AppointmentStatus
	to        enums.AppointmentStatus
	ownerOnly bool
	notify    enums.NotificationKind
}

var appointmentRules = map[AppointmentAction]appointmentRule{
	AppointmentConfirm: {
		from:      []enums.AppointmentStatus{enums.AppointmentPending},
		to:        enums.AppointmentConfirmed,
		ownerOnly: true,
		notify:    enums.NotifyAppointmentConfirmed,
	},
	AppointmentDecline: {
		from:      []enums.AppointmentStatus{enums.AppointmentPending},
		to:        enums.AppointmentDeclined,
		ownerOnly: true,
		notify:    enums.NotifyAppointmentDeclined,
	},
	AppointmentCancel: {
		from:   []enums.AppointmentStatus{enums.AppointmentPending, enums.AppointmentConfirmed},
		to:     enums.AppointmentCancelled,
		notify: enums.NotifyAppointmentCancelled,
	},
	AppointmentComplete: {
		from:      []enums.AppointmentStatus{enums.AppointmentConfirmed},
		to:        enums.AppointmentCompleted,
		ownerOnly: true,
		notify:    enums.NotifyAppointmentCompleted,
	},
}

// ApplyAppointmentAction moves a by action on behalf of role and returns the
// notification for the counterparty.
func ApplyAppointmentAction(a model.Appointment, action AppointmentAction, role enums.PartyRole) (model.Appointment, []model.Effect, error) {
	rule, ok := appointmentRules[action]
	if !ok {
		return model.Appointment{}, nil, errs.Invalid("unknown appointment action")
	}
	if !role.Valid() {
		return model.Appointment{}, nil, errs.ErrNotParty
	}
	if rule.ownerOnly && role != enums.PartyOwner {
		return model.Appointment{}, nil, errs.ErrNotOwner
	}

	allowed := false
	for _, s := range rule.from {
		if a.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Appointment{}, nil, fmt.Errorf("%w: %s from %s", errs.ErrAppointmentState, action, a.Status)
	}

	a.Status = rule.to
	recipient := a.Counterparty(role)
	effect := model.NotificationEffect(
		fmt.Sprintf("appointment:%d:%s:%d", a.ID, a.Status, recipient),
		model.Notification{
			RecipientID: recipient,
			Kind:        rule.notify,
			Title:       fmt.Sprintf("Appointment %s", a.Status),
			Message:     fmt.Sprintf("Your %s appointment for listing #%d on %s is now %s.", a.Kind, a.ListingID, a.When.UTC().Format("2006-01-02 15:04 MST"), a.Status),
			Payload: map[string]any{
				"appointment_id": a.ID,
				"listing_id":     a.ListingID,
				"status":         string(a.Status),
			},
		},
	)
	return a, []model.Effect{effect}, nil
}

// AppointmentRequestedEffect notifies the owner about a new request.
func AppointmentRequestedEffect(a model.Appointment) model.Effect {
	return model.NotificationEffect(
		fmt.Sprintf("appointment:%d:%s:%d", a.ID, enums.AppointmentPending, a.OwnerID),
		model.Notification{
			RecipientID: a.OwnerID,
			Kind:        enums.NotifyAppointmentRequested,
			Title:       "New appointment request",
			Message:     fmt.Sprintf("Someone asked for a %s of listing #%d on %s.", a.Kind, a.ListingID, a.When.UTC().Format("2006-01-02 15:04 MST")),
			Payload: map[string]any{
				"appointment_id": a.ID,
				"listing_id":     a.ListingID,
			},
		},
	)
}
